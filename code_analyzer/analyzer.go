package code_analyzer

import (
	"context"

	"github.com/meysamhadeli/patchpilot/code_analyzer/contracts"
	"github.com/meysamhadeli/patchpilot/code_analyzer/models"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// CodeAnalyzer handles the analysis of project files.
type CodeAnalyzer struct {
	fs           afero.Fs
	cacheManager *CacheManager
	logger       zerolog.Logger
}

// NewCodeAnalyzer initializes a new CodeAnalyzer. A nil cacheManager disables structure caching.
func NewCodeAnalyzer(fs afero.Fs, cacheManager *CacheManager, logger zerolog.Logger) contracts.ICodeAnalyzer {
	return &CodeAnalyzer{
		fs:           fs,
		cacheManager: cacheManager,
		logger:       logger.With().Str("component", "code_analyzer").Logger(),
	}
}

func (analyzer *CodeAnalyzer) BuildTree(files []models.File) *models.TreeNode {
	return BuildTree(files)
}

// AnalyzeStructure returns the structure of file, consulting the cache first when one is configured.
func (analyzer *CodeAnalyzer) AnalyzeStructure(file models.File) models.FileStructure {
	if analyzer.cacheManager != nil {
		if cached, found := analyzer.cacheManager.GetStructure(file.Content, file.Extension); found {
			return cached
		}
	}

	structure := AnalyzeStructure(file.Content, file.Extension)

	if analyzer.cacheManager != nil {
		if err := analyzer.cacheManager.SetStructure(file.Content, file.Extension, structure); err != nil {
			analyzer.logger.Warn().Err(err).Str("file", file.Location()).Msg("failed to cache structure")
		}
	}

	return structure
}

// Outline returns the syntax outline of file, or an empty list when parsing fails.
func (analyzer *CodeAnalyzer) Outline(file models.File) []models.OutlineEntry {
	entries, err := Outline(context.Background(), file.Content, file.Extension)
	if err != nil {
		analyzer.logger.Warn().Err(err).Str("file", file.Location()).Msg("failed to outline file")
		return []models.OutlineEntry{}
	}
	return entries
}

func (analyzer *CodeAnalyzer) NewFile(name string, filePath string, content string) models.File {
	return NewFile(name, filePath, content)
}
