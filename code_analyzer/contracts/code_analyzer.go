package contracts

import (
	"context"

	"github.com/meysamhadeli/patchpilot/code_analyzer/models"
)

type ICodeAnalyzer interface {
	BuildTree(files []models.File) *models.TreeNode
	AnalyzeStructure(file models.File) models.FileStructure
	Outline(file models.File) []models.OutlineEntry
	IngestDirectory(ctx context.Context, root string) (*models.IngestResult, error)
	IngestEntries(ctx context.Context, entries []models.DirectoryEntry, read func(models.DirectoryEntry) (string, error)) *models.IngestResult
	NewFile(name string, filePath string, content string) models.File
}
