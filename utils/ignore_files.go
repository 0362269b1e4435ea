package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ignoreCacheEntry holds cached ignore patterns with file metadata
type ignoreCacheEntry struct {
	patterns []string
	modTime  time.Time
}

// Global cache for ignore-file patterns
var (
	ignoreCache = make(map[string]*ignoreCacheEntry)
	cacheMutex  sync.RWMutex
)

// GetIgnorePatterns reads and returns the patterns from the .archlens-ignore
// file. If the file does not exist, it returns an empty pattern list.
// Parsed patterns are cached until the file's modification time changes.
func GetIgnorePatterns(cwd string) ([]string, error) {
	ignorePath := filepath.Join(cwd, ".archlens-ignore")

	fileInfo, err := os.Stat(ignorePath)
	if os.IsNotExist(err) {
		return []string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("error checking .archlens-ignore: %w", err)
	}

	// Check cache first
	cacheMutex.RLock()
	if cached, exists := ignoreCache[ignorePath]; exists {
		if fileInfo.ModTime().Equal(cached.modTime) {
			cacheMutex.RUnlock()
			return cached.patterns, nil
		}
	}
	cacheMutex.RUnlock()

	ignorePatterns, err := readIgnoreFile(ignorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read .archlens-ignore: %w", err)
	}

	// Drop patterns the default ignore list already covers
	var validPatterns []string
	for _, pattern := range ignorePatterns {
		if !IsDefaultIgnored(pattern) {
			validPatterns = append(validPatterns, pattern)
		}
	}

	cacheMutex.Lock()
	ignoreCache[ignorePath] = &ignoreCacheEntry{
		patterns: validPatterns,
		modTime:  fileInfo.ModTime(),
	}
	cacheMutex.Unlock()

	return validPatterns, nil
}

func IsDefaultIgnored(path string) bool {
	// Define ignore patterns
	ignorePatterns := []string{
		"archlens-config.yml",
		".git",
		".svn",
		".sum",
		".tmp",
		".tmpl",
		".idea",
		".vscode",
		"bin",
		"obj",
		"dist",
		"out",
		".cache",
		"node_modules",
		"vendor",
		"__pycache__",
		"*.exe",
		"*.dll",
		"*.log",
		"*.bak",
		"*.bkp",
		".mp3",
		".wav",
		".aac",
		".flac",
		".ogg",
		".jpg",
		".jpeg",
		".png",
		".gif",
		".mkv",
		".mp4",
		".avi",
		".mov",
		".wmv",
		".drawio",
		".excalidraw",
	}

	// Split the path into parts based on the file separator
	parts := strings.Split(path, string(filepath.Separator))

	// Check each part for any ignore patterns
	for _, part := range parts {
		part = strings.ToLower(part)
		for _, pattern := range ignorePatterns {
			if strings.HasPrefix(pattern, "*") {
				// If the pattern starts with '*', check for suffix
				suffix := strings.TrimPrefix(pattern, "*")
				if strings.HasSuffix(part, suffix) {
					return true
				}
			} else {
				// Check for both prefix and suffix matches
				if strings.HasPrefix(part, pattern) || strings.HasSuffix(part, pattern) {
					return true
				}
			}
		}
	}
	return false
}

// readIgnoreFile reads the ignore file and returns the list of patterns.
func readIgnoreFile(ignorePath string) ([]string, error) {
	content, err := os.ReadFile(ignorePath)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(content), "\n")
	var patterns []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, nil
}

// IsIgnored checks if a file path matches any of the configured patterns.
func IsIgnored(path string, patterns []string) bool {
	for _, pattern := range patterns {
		match, _ := filepath.Match(pattern, path)
		if match {
			return true
		}
		// Handle patterns like "dir/" that ignore entire directories
		if strings.HasSuffix(pattern, "/") && strings.HasPrefix(path, pattern) {
			return true
		}
	}
	return false
}

// ClearIgnoreCache clears all cached ignore patterns.
func ClearIgnoreCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	ignoreCache = make(map[string]*ignoreCacheEntry)
}
