package code_analyzer

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/meysamhadeli/patchpilot/code_analyzer/models"
	"github.com/spf13/afero"
	"github.com/zeebo/xxh3"
)

// CacheEntry represents a cached structure summary with metadata
type CacheEntry struct {
	Structure models.FileStructure
	Extension string
	Timestamp time.Time
}

// CacheManager stores structure summaries keyed by a hash of file content and extension.
type CacheManager struct {
	fs       afero.Fs
	cacheDir string
	mutex    sync.RWMutex
	stats    *CacheStats
}

// CacheCleanupOptions defines options for cache cleanup
type CacheCleanupOptions struct {
	MaxAge   time.Duration // Remove entries older than this
	MaxFiles int           // Remove oldest entries if cache exceeds this number of files
}

// NewCacheManager creates a cache rooted at cacheDir on fs.
func NewCacheManager(fs afero.Fs, cacheDir string) (*CacheManager, error) {
	if cacheDir == "" {
		return nil, fmt.Errorf("cache directory is required")
	}

	if err := fs.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &CacheManager{
		fs:       fs,
		cacheDir: cacheDir,
		stats:    newCacheStats(),
	}, nil
}

// generateCacheKey creates a unique cache key for a content/extension pair
func generateCacheKey(content string, extension string) string {
	return fmt.Sprintf("%x-%s.cache", xxh3.HashString(content), extension)
}

func (cm *CacheManager) cachePath(key string) string {
	return filepath.Join(cm.cacheDir, key)
}

// GetStructure returns a cached structure for content, if any.
func (cm *CacheManager) GetStructure(content string, extension string) (models.FileStructure, bool) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	data, err := afero.ReadFile(cm.fs, cm.cachePath(generateCacheKey(content, extension)))
	if err != nil {
		cm.recordCacheMiss()
		return models.FileStructure{}, false
	}

	var entry CacheEntry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entry); err != nil {
		cm.recordCacheMiss()
		return models.FileStructure{}, false
	}

	cm.recordCacheHit()
	return normalizeStructure(entry.Structure), true
}

// SetStructure stores structure for content.
func (cm *CacheManager) SetStructure(content string, extension string, structure models.FileStructure) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	entry := CacheEntry{
		Structure: structure,
		Extension: extension,
		Timestamp: time.Now(),
	}

	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(entry); err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if err := afero.WriteFile(cm.fs, cm.cachePath(generateCacheKey(content, extension)), buffer.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// gob drops empty slices, so decoded summaries are given back their empty lists.
func normalizeStructure(structure models.FileStructure) models.FileStructure {
	if structure.Functions == nil {
		structure.Functions = []models.Symbol{}
	}
	if structure.Classes == nil {
		structure.Classes = []models.Symbol{}
	}
	if structure.Imports == nil {
		structure.Imports = []string{}
	}
	return structure
}

// ClearCache completely removes all cache entries
func (cm *CacheManager) ClearCache() error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	entries, err := afero.ReadDir(cm.fs, cm.cacheDir)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := cm.fs.Remove(cm.cachePath(entry.Name())); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete cache file: %w", err)
		}
	}

	cm.resetStats()
	return nil
}

// CleanupCache removes entries older than MaxAge and then the oldest entries beyond MaxFiles.
// It returns the number of removed entries.
func (cm *CacheManager) CleanupCache(options CacheCleanupOptions) (int, error) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	entries, err := afero.ReadDir(cm.fs, cm.cacheDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	files := make([]os.FileInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry)
		}
	}

	// Oldest first
	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime().Before(files[j].ModTime())
	})

	cutoff := time.Time{}
	if options.MaxAge > 0 {
		cutoff = time.Now().Add(-options.MaxAge)
	}

	removed := 0
	remaining := len(files)
	for _, file := range files {
		expired := !cutoff.IsZero() && file.ModTime().Before(cutoff)
		overflow := options.MaxFiles > 0 && remaining > options.MaxFiles
		if !expired && !overflow {
			continue
		}
		if err := cm.fs.Remove(cm.cachePath(file.Name())); err == nil {
			removed++
			remaining--
		}
	}

	return removed, nil
}

// GetCacheStats returns cache statistics
func (cm *CacheManager) GetCacheStats() (map[string]interface{}, error) {
	cm.mutex.RLock()
	entries, err := afero.ReadDir(cm.fs, cm.cacheDir)
	cm.mutex.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	var totalSize int64
	files := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			files++
			totalSize += entry.Size()
		}
	}

	stats := cm.GetPerformanceStats()
	stats["cache_enabled"] = true
	stats["cache_files"] = files
	stats["total_size"] = totalSize
	stats["cache_dir"] = cm.cacheDir

	return stats, nil
}
