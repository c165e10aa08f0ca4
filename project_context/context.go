package project_context

import (
	"strings"

	"github.com/meysamhadeli/patchpilot/code_analyzer"
	analyzer_models "github.com/meysamhadeli/patchpilot/code_analyzer/models"
	"github.com/meysamhadeli/patchpilot/project_context/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// StructureAnalyzer computes the structure of a single file.
type StructureAnalyzer interface {
	AnalyzeStructure(file analyzer_models.File) analyzer_models.FileStructure
}

type lexicalAnalyzer struct{}

func (lexicalAnalyzer) AnalyzeStructure(file analyzer_models.File) analyzer_models.FileStructure {
	return code_analyzer.AnalyzeStructure(file.Content, file.Extension)
}

// Builder assembles project contexts using a structure analyzer.
type Builder struct {
	analyzer StructureAnalyzer
}

// NewBuilder returns a Builder backed by analyzer. A nil analyzer scans content directly.
func NewBuilder(analyzer StructureAnalyzer) *Builder {
	if analyzer == nil {
		analyzer = lexicalAnalyzer{}
	}
	return &Builder{analyzer: analyzer}
}

// BuildContext aggregates files with the lexical scanner and no cache.
func BuildContext(files []analyzer_models.File) models.ProjectContext {
	return NewBuilder(nil).BuildContext(files)
}

// BuildContext renders the tree of files and collects line totals, languages in first-seen order,
// per-file structure and a summary paragraph.
func (b *Builder) BuildContext(files []analyzer_models.File) models.ProjectContext {
	ctx := models.ProjectContext{
		Structure: RenderTree(code_analyzer.BuildTree(files)),
		FileCount: len(files),
		Languages: []string{},
		Files:     make([]models.FileContext, 0, len(files)),
	}

	seen := make(map[string]bool)
	for _, file := range files {
		lines := file.Lines()
		ctx.TotalLines += lines

		name := LanguageName(file.Extension)
		if !seen[name] {
			seen[name] = true
			ctx.Languages = append(ctx.Languages, name)
		}

		ctx.Files = append(ctx.Files, models.FileContext{
			Path:      file.Location(),
			Name:      file.Name,
			Extension: file.Extension,
			Size:      file.Size,
			Lines:     lines,
			Content:   file.Content,
			Structure: b.analyzer.AnalyzeStructure(file),
		})
	}

	ctx.Summary = Summarize(ctx)
	return ctx
}

var printer = message.NewPrinter(language.English)

// Summarize writes the one-paragraph overview of a context.
func Summarize(ctx models.ProjectContext) string {
	primary := "Mixed"
	if len(ctx.Languages) > 0 {
		primary = ctx.Languages[0]
	}

	var summary strings.Builder
	summary.WriteString(printer.Sprintf("This is a %s project with %d files and %d total lines of code.", primary, ctx.FileCount, ctx.TotalLines))

	if len(ctx.Languages) > 1 {
		summary.WriteString(" The project uses multiple languages: " + strings.Join(ctx.Languages, ", ") + ".")
	}

	functions, classes := countSymbols(ctx.Files)
	if functions > 0 {
		summary.WriteString(printer.Sprintf(" Contains %d functions", functions))
	}
	if classes > 0 {
		summary.WriteString(printer.Sprintf(" and %d classes", classes))
	}
	if functions > 0 || classes > 0 {
		summary.WriteString(".")
	}

	return summary.String()
}

func countSymbols(files []models.FileContext) (functions int, classes int) {
	for _, file := range files {
		functions += len(file.Structure.Functions)
		classes += len(file.Structure.Classes)
	}
	return functions, classes
}
