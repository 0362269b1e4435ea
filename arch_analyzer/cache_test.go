package arch_analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archlens/archlens/arch_analyzer/models"
)

func newStructuralResult(componentID string, confidence float64) *models.AnalysisResult {
	return &models.AnalysisResult{
		ComponentID: componentID,
		Kind:        models.KindStructural,
		Payload: &models.StructuralPayload{
			Purpose: "handles payments",
			C4Level: "component",
		},
		Confidence: confidence,
		Origin:     models.OriginAgent,
		Timestamp:  time.Now(),
	}
}

func TestAnalysisCache_HitAndMiss(t *testing.T) {
	cache, err := NewAnalysisCache("")
	require.NoError(t, err)

	// Miss on a fresh cache
	result, found := cache.Get("hash-a", models.KindStructural)
	assert.False(t, found)
	assert.Nil(t, result)

	stored := newStructuralResult("comp-a", 0.85)
	require.NoError(t, cache.Put("hash-a", models.KindStructural, stored))

	// Hit for the same content hash and kind
	result, found = cache.Get("hash-a", models.KindStructural)
	require.True(t, found)
	assert.Equal(t, 0.85, result.Confidence)
	payload, ok := result.Structural()
	require.True(t, ok)
	assert.Equal(t, "handles payments", payload.Purpose)

	// Same hash, different kind is a distinct key
	_, found = cache.Get("hash-a", models.KindRelationships)
	assert.False(t, found)

	// Different hash misses
	_, found = cache.Get("hash-b", models.KindStructural)
	assert.False(t, found)
}

func TestAnalysisCache_DiskRoundtrip(t *testing.T) {
	tempDir := t.TempDir()

	cache, err := NewAnalysisCache(tempDir)
	require.NoError(t, err)
	require.NoError(t, cache.Put("hash-a", models.KindStructural, newStructuralResult("comp-a", 0.9)))

	// A fresh cache instance over the same directory sees the entry
	reopened, err := NewAnalysisCache(tempDir)
	require.NoError(t, err)

	result, found := reopened.Get("hash-a", models.KindStructural)
	require.True(t, found)
	assert.Equal(t, "comp-a", result.ComponentID)
}

func TestAnalysisCache_CorruptedEntryIsMiss(t *testing.T) {
	tempDir := t.TempDir()

	cache, err := NewAnalysisCache(tempDir)
	require.NoError(t, err)
	require.NoError(t, cache.Put("hash-a", models.KindStructural, newStructuralResult("comp-a", 0.9)))

	// Corrupt the stored entry on disk
	path := filepath.Join(tempDir, entryFileName("hash-a", models.KindStructural))
	require.NoError(t, os.WriteFile(path, []byte("not a gob stream"), 0644))

	reopened, err := NewAnalysisCache(tempDir)
	require.NoError(t, err)

	result, found := reopened.Get("hash-a", models.KindStructural)
	assert.False(t, found)
	assert.Nil(t, result)
}

func TestAnalysisCache_ConcurrentPuts(t *testing.T) {
	tempDir := t.TempDir()

	cache, err := NewAnalysisCache(tempDir)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			result := newStructuralResult(fmt.Sprintf("comp-%d", n), 0.8)
			assert.NoError(t, cache.Put("hash-shared", models.KindStructural, result))
		}(i)
	}
	wg.Wait()

	// One of the concurrent writes won; the entry must be intact
	result, found := cache.Get("hash-shared", models.KindStructural)
	require.True(t, found)
	payload, ok := result.Structural()
	require.True(t, ok)
	assert.Equal(t, "handles payments", payload.Purpose)

	// And readable from a fresh instance too
	reopened, err := NewAnalysisCache(tempDir)
	require.NoError(t, err)
	_, found = reopened.Get("hash-shared", models.KindStructural)
	assert.True(t, found)
}

func TestAnalysisCache_ServedResultsAreIsolated(t *testing.T) {
	cache, err := NewAnalysisCache("")
	require.NoError(t, err)

	stored := &models.AnalysisResult{
		ComponentID: "a.go",
		Kind:        models.KindRelationships,
		Payload: &models.RelationshipPayload{
			Edges: []models.RelationshipEdge{{
				SourceID:   "a.go",
				TargetID:   "c.go",
				Kind:       models.RelationCalls,
				Evidence:   []string{"calls the helper in c"},
				Origin:     models.OriginAgent,
				Confidence: 0.6,
			}},
		},
		Confidence: 0.6,
		Origin:     models.OriginAgent,
		Timestamp:  time.Now(),
	}
	require.NoError(t, cache.Put("hash-shared", models.KindRelationships, stored))

	// Rebinding a served result must not leak into the stored entry
	served, found := cache.Get("hash-shared", models.KindRelationships)
	require.True(t, found)
	served.RebindTo("b.go")

	again, found := cache.Get("hash-shared", models.KindRelationships)
	require.True(t, found)
	assert.Equal(t, "a.go", again.ComponentID)
	payload, ok := again.Relationships()
	require.True(t, ok)
	require.Len(t, payload.Edges, 1)
	assert.Equal(t, "a.go", payload.Edges[0].SourceID)
}

func TestAnalysisCache_Clear(t *testing.T) {
	tempDir := t.TempDir()

	cache, err := NewAnalysisCache(tempDir)
	require.NoError(t, err)
	require.NoError(t, cache.Put("hash-a", models.KindStructural, newStructuralResult("comp-a", 0.9)))
	require.NoError(t, cache.Put("hash-b", models.KindRelationships, &models.AnalysisResult{
		ComponentID: "comp-b",
		Kind:        models.KindRelationships,
		Payload:     &models.RelationshipPayload{},
		Confidence:  0.7,
		Origin:      models.OriginAgent,
		Timestamp:   time.Now(),
	}))

	require.NoError(t, cache.Clear())

	_, found := cache.Get("hash-a", models.KindStructural)
	assert.False(t, found)

	stats, err := cache.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats["disk_entries"])
}

func BenchmarkAnalysisCache_Get(b *testing.B) {
	cache, err := NewAnalysisCache("")
	if err != nil {
		b.Fatal(err)
	}
	if err := cache.Put("hash-a", models.KindStructural, newStructuralResult("comp-a", 0.9)); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, found := cache.Get("hash-a", models.KindStructural); !found {
			b.Fatal("expected cache hit")
		}
	}
}
