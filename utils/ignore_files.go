package utils

import (
	"fmt"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// IgnoreFileName is the per-project file listing extra ingestion exclusions.
const IgnoreFileName = ".patchpilot-ignore"

// ignoreCacheEntry holds cached ignore patterns with metadata
type ignoreCacheEntry struct {
	patterns []string
	modTime  time.Time
}

// Global cache for ignore patterns
var (
	ignoreCache = make(map[string]*ignoreCacheEntry)
	cacheMutex  sync.RWMutex
)

var ignoredDirectories = map[string]bool{
	".git":         true,
	".svn":         true,
	".idea":        true,
	".vscode":      true,
	".cache":       true,
	"node_modules": true,
	"bin":          true,
	"obj":          true,
	"dist":         true,
	"out":          true,
	"target":       true,
	"__pycache__":  true,
}

var ignoredSuffixes = []string{
	".exe", ".dll", ".log", ".bak", ".bkp", ".tmp", ".sum",
	".mp3", ".wav", ".aac", ".flac", ".ogg",
	".jpg", ".jpeg", ".png", ".gif",
	".mkv", ".mp4", ".avi", ".mov", ".wmv",
	".drawio", ".excalidraw",
}

// GetIgnorePatterns reads the patterns of the ignore file in dir.
// If the file does not exist, it returns an empty pattern list.
func GetIgnorePatterns(fs afero.Fs, dir string) ([]string, error) {
	ignorePath := path.Join(NormalizePath(dir), IgnoreFileName)

	fileInfo, err := fs.Stat(ignorePath)
	if os.IsNotExist(err) {
		return []string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("error checking %s: %w", IgnoreFileName, err)
	}

	// Check cache first
	cacheMutex.RLock()
	if cached, exists := ignoreCache[ignorePath]; exists {
		// Check if file has been modified since cache
		if fileInfo.ModTime().Equal(cached.modTime) {
			cacheMutex.RUnlock()
			return cached.patterns, nil
		}
	}
	cacheMutex.RUnlock()

	ignorePatterns, err := readIgnoreFile(fs, ignorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", IgnoreFileName, err)
	}

	cacheMutex.Lock()
	ignoreCache[ignorePath] = &ignoreCacheEntry{
		patterns: ignorePatterns,
		modTime:  fileInfo.ModTime(),
	}
	cacheMutex.Unlock()

	return ignorePatterns, nil
}

// IsDefaultIgnored reports whether any segment of the slash-separated path is a
// well-known build, VCS or editor directory, or the path ends in a binary/media suffix.
func IsDefaultIgnored(p string) bool {
	p = NormalizePath(p)
	for _, part := range strings.Split(p, PathSeparator) {
		if ignoredDirectories[strings.ToLower(part)] {
			return true
		}
	}

	lower := strings.ToLower(p)
	for _, suffix := range ignoredSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// readIgnoreFile returns the non-empty, non-comment lines of the ignore file.
func readIgnoreFile(fs afero.Fs, ignorePath string) ([]string, error) {
	content, err := afero.ReadFile(fs, ignorePath)
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

// IsIgnored checks if a slash-separated relative path matches any pattern.
func IsIgnored(p string, patterns []string) bool {
	p = NormalizePath(p)
	for _, pattern := range patterns {
		if match, _ := path.Match(pattern, p); match {
			return true
		}
		if match, _ := path.Match(pattern, path.Base(p)); match {
			return true
		}
		// Handle patterns like "dir/" that ignore entire directories
		if strings.HasSuffix(pattern, "/") && strings.HasPrefix(p+"/", pattern) {
			return true
		}
	}
	return false
}

// ClearIgnoreCache clears all cached ignore patterns
func ClearIgnoreCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	ignoreCache = make(map[string]*ignoreCacheEntry)
}
