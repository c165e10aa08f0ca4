package code_analyzer

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meysamhadeli/patchpilot/code_analyzer/models"
	"github.com/meysamhadeli/patchpilot/utils"
	"github.com/sourcegraph/conc/iter"
	"github.com/spf13/afero"
)

// codeExtensions is the allow-list applied to every uploaded or traversed file.
var codeExtensions = map[string]bool{
	"py": true, "js": true, "ts": true, "jsx": true, "tsx": true, "java": true,
	"cpp": true, "c": true, "h": true, "hpp": true, "rs": true, "go": true,
	"php": true, "rb": true, "swift": true, "kt": true, "cs": true, "html": true,
	"css": true, "scss": true, "sass": true, "json": true, "xml": true, "yaml": true,
	"yml": true, "md": true, "txt": true, "lua": true, "r": true, "sql": true,
	"sh": true, "bash": true, "ps1": true, "vue": true, "svelte": true, "luau": true,
}

// IsCodeFile reports whether name carries an allow-listed source extension.
func IsCodeFile(name string) bool {
	return codeExtensions[models.ExtensionOf(name)]
}

// NewFile builds a fresh File record with a new id and derived extension and size.
func NewFile(name string, filePath string, content string) models.File {
	now := time.Now()
	return models.File{
		ID:           uuid.NewString(),
		Name:         name,
		Path:         utils.NormalizePath(filePath),
		Content:      content,
		Size:         len(content),
		Extension:    models.ExtensionOf(name),
		AddedAt:      now,
		LastModified: now,
	}
}

type pendingRead struct {
	entry   models.DirectoryEntry
	absPath string
}

type readOutcome struct {
	file models.File
	err  error
}

// IngestDirectory walks root recursively on the analyzer filesystem and reads every allow-listed
// file that is not excluded by the default rules or the project ignore file. File paths are
// prefixed with the directory name. Unreadable files are recorded in the stats and skipped.
func (analyzer *CodeAnalyzer) IngestDirectory(ctx context.Context, root string) (*models.IngestResult, error) {
	info, err := analyzer.fs.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	patterns, err := utils.GetIgnorePatterns(analyzer.fs, root)
	if err != nil {
		analyzer.logger.Warn().Err(err).Str("root", root).Msg("ignoring unreadable ignore file")
		patterns = nil
	}

	rootName := path.Base(utils.NormalizePath(filepath.Clean(root)))
	stats := models.IngestStats{Name: rootName, Errors: []string{}}
	var pending []pendingRead

	err = afero.Walk(analyzer.fs, root, func(absPath string, info os.FileInfo, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		relativePath, relErr := filepath.Rel(root, absPath)
		if relErr != nil {
			return relErr
		}
		relativePath = utils.NormalizePath(relativePath)

		if walkErr != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", relativePath, walkErr))
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if relativePath == "." {
			return nil
		}

		if utils.IsDefaultIgnored(relativePath) || utils.IsIgnored(relativePath, patterns) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			return nil
		}

		stats.TotalFiles++
		if !IsCodeFile(info.Name()) {
			return nil
		}

		pending = append(pending, pendingRead{
			entry: models.DirectoryEntry{
				Name:         info.Name(),
				RelativePath: utils.JoinPath(rootName, relativePath),
				LastModified: info.ModTime(),
			},
			absPath: absPath,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	stats.CodeFiles = len(pending)

	outcomes := iter.Map(pending, func(item *pendingRead) readOutcome {
		if err := ctx.Err(); err != nil {
			return readOutcome{err: err}
		}
		content, err := afero.ReadFile(analyzer.fs, item.absPath)
		if err != nil {
			return readOutcome{err: err}
		}
		return readOutcome{file: analyzer.fileFromEntry(item.entry, string(content))}
	})

	result := analyzer.collect(outcomes, pending, stats)
	analyzer.logger.Info().
		Str("root", root).
		Int("total", result.Stats.TotalFiles).
		Int("processed", result.Stats.ProcessedFiles).
		Int("errors", len(result.Stats.Errors)).
		Msg("directory ingested")

	return result, nil
}

// IngestEntries converts a host-provided directory listing into files, reading content through read.
// Entries outside the allow-list are dropped; failed reads are recorded and skipped.
func (analyzer *CodeAnalyzer) IngestEntries(ctx context.Context, entries []models.DirectoryEntry, read func(models.DirectoryEntry) (string, error)) *models.IngestResult {
	stats := models.IngestStats{TotalFiles: len(entries), Errors: []string{}}
	if len(entries) > 0 {
		first := utils.NormalizePath(entries[0].RelativePath)
		if index := strings.Index(first, utils.PathSeparator); index > 0 {
			stats.Name = first[:index]
		}
	}

	var pending []pendingRead
	for _, entry := range entries {
		if IsCodeFile(entry.Name) {
			pending = append(pending, pendingRead{entry: entry})
		}
	}
	stats.CodeFiles = len(pending)

	outcomes := iter.Map(pending, func(item *pendingRead) readOutcome {
		if err := ctx.Err(); err != nil {
			return readOutcome{err: err}
		}
		content, err := read(item.entry)
		if err != nil {
			return readOutcome{err: err}
		}
		return readOutcome{file: analyzer.fileFromEntry(item.entry, content)}
	})

	return analyzer.collect(outcomes, pending, stats)
}

func (analyzer *CodeAnalyzer) fileFromEntry(entry models.DirectoryEntry, content string) models.File {
	filePath := entry.RelativePath
	if filePath == "" {
		filePath = entry.Name
	}
	file := NewFile(entry.Name, filePath, content)
	if !entry.LastModified.IsZero() {
		file.LastModified = entry.LastModified
	}
	return file
}

func (analyzer *CodeAnalyzer) collect(outcomes []readOutcome, pending []pendingRead, stats models.IngestStats) *models.IngestResult {
	result := &models.IngestResult{Files: []models.File{}}
	for i, outcome := range outcomes {
		if outcome.err != nil {
			analyzer.logger.Warn().Err(outcome.err).Str("file", pending[i].entry.Name).Msg("skipping unreadable file")
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", pending[i].entry.Name, outcome.err))
			continue
		}
		result.Files = append(result.Files, outcome.file)
	}
	stats.ProcessedFiles = len(result.Files)
	result.Stats = stats
	return result
}
