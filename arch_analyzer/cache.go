package arch_analyzer

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/archlens/archlens/arch_analyzer/models"
)

// CacheEntry is one stored analysis result, keyed by the cryptographic hash of
// the component's normalized source excerpt and the analysis kind. The hash is
// repeated inside the entry so a corrupted or mismatched entry can be detected
// on read.
type CacheEntry struct {
	ContentHash string
	Kind        models.AnalysisKind
	Result      models.AnalysisResult
	StoredAt    time.Time
}

type cacheKey struct {
	contentHash string
	kind        models.AnalysisKind
}

// AnalysisCache maps (content hash, analysis kind) to stored analysis results.
// Entries survive runs when a cache directory is configured; in-memory state
// backs every lookup first. Invalidation is implicit: changed content hashes
// to a different key, so stale entries are simply never hit again.
type AnalysisCache struct {
	mutex    sync.RWMutex
	entries  map[cacheKey]*CacheEntry
	cacheDir string
}

// NewAnalysisCache creates a cache. An empty cacheDir keeps the cache purely
// in memory, which is what test runs substitute.
func NewAnalysisCache(cacheDir string) (*AnalysisCache, error) {
	gob.Register(&models.StructuralPayload{})
	gob.Register(&models.RelationshipPayload{})
	gob.Register(&models.ResponsibilityPayload{})

	if cacheDir != "" {
		if err := os.MkdirAll(cacheDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	return &AnalysisCache{
		entries:  make(map[cacheKey]*CacheEntry),
		cacheDir: cacheDir,
	}, nil
}

// entryFileName derives the on-disk name for a key. The name only needs to be
// unique and stable; the correctness-bearing content hash lives in the entry.
func entryFileName(contentHash string, kind models.AnalysisKind) string {
	digest := xxh3.HashString(contentHash + ":" + string(kind))
	return fmt.Sprintf("%016x.cache", digest)
}

// Get retrieves the stored result for byte-identical source content. A miss is
// never an error; callers treat it as "compute now". Malformed or mismatched
// stored entries are treated as misses.
func (c *AnalysisCache) Get(contentHash string, kind models.AnalysisKind) (*models.AnalysisResult, bool) {
	key := cacheKey{contentHash: contentHash, kind: kind}

	c.mutex.RLock()
	entry, found := c.entries[key]
	c.mutex.RUnlock()

	if !found && c.cacheDir != "" {
		entry = c.loadFromDisk(contentHash, kind)
		if entry != nil {
			c.mutex.Lock()
			// Another reader may have loaded it meanwhile; last write wins.
			c.entries[key] = entry
			c.mutex.Unlock()
			found = true
		}
	}

	if !found || entry == nil {
		return nil, false
	}

	// Hash mismatch means corruption; recompute instead of trusting the entry.
	if entry.ContentHash != contentHash || entry.Kind != kind {
		return nil, false
	}

	// Served results are deep copies; callers rebind and mutate them without
	// touching the stored entry.
	return entry.Result.Clone(), true
}

// Put stores a result. Concurrent puts for the same key must not corrupt the
// stored entry; the disk write goes through a temp file and an atomic rename,
// and the in-memory map is replaced wholesale under the lock (last-writer-wins).
func (c *AnalysisCache) Put(contentHash string, kind models.AnalysisKind, result *models.AnalysisResult) error {
	entry := &CacheEntry{
		ContentHash: contentHash,
		Kind:        kind,
		Result:      *result,
		StoredAt:    time.Now(),
	}

	c.mutex.Lock()
	c.entries[cacheKey{contentHash: contentHash, kind: kind}] = entry
	c.mutex.Unlock()

	if c.cacheDir == "" {
		return nil
	}
	return c.writeToDisk(entry)
}

func (c *AnalysisCache) loadFromDisk(contentHash string, kind models.AnalysisKind) *CacheEntry {
	path := filepath.Join(c.cacheDir, entryFileName(contentHash, kind))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var entry CacheEntry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entry); err != nil {
		// Malformed stored entry, treated as a miss.
		return nil
	}
	return &entry
}

func (c *AnalysisCache) writeToDisk(entry *CacheEntry) error {
	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(entry); err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	finalPath := filepath.Join(c.cacheDir, entryFileName(entry.ContentHash, entry.Kind))

	tmp, err := os.CreateTemp(c.cacheDir, "entry-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(buffer.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close cache file: %w", err)
	}

	// Atomic replace keeps concurrent writers from interleaving partial writes.
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to publish cache entry: %w", err)
	}
	return nil
}

// Stats reports entry counts and on-disk footprint for the reset-cache command.
func (c *AnalysisCache) Stats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	c.mutex.RLock()
	stats["memory_entries"] = len(c.entries)
	c.mutex.RUnlock()

	stats["cache_dir"] = c.cacheDir
	if c.cacheDir == "" {
		stats["disk_entries"] = 0
		stats["total_size"] = int64(0)
		return stats, nil
	}

	files, err := os.ReadDir(c.cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	var totalSize int64
	var count int
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		totalSize += info.Size()
		count++
	}

	stats["disk_entries"] = count
	stats["total_size"] = totalSize
	return stats, nil
}

// Clear removes every entry, in memory and on disk.
func (c *AnalysisCache) Clear() error {
	c.mutex.Lock()
	c.entries = make(map[cacheKey]*CacheEntry)
	c.mutex.Unlock()

	if c.cacheDir == "" {
		return nil
	}

	files, err := os.ReadDir(c.cacheDir)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		os.Remove(filepath.Join(c.cacheDir, file.Name()))
	}
	return nil
}
