package project_context

import (
	"strings"
	"testing"

	"github.com/meysamhadeli/patchpilot/code_analyzer"
	analyzer_models "github.com/meysamhadeli/patchpilot/code_analyzer/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func file(name, filePath, content string) analyzer_models.File {
	return code_analyzer.NewFile(name, filePath, content)
}

func scenarioFiles() []analyzer_models.File {
	return []analyzer_models.File{
		file("a.py", "src/a.py", "def foo():\n    pass\n"),
		file("b.py", "src/util/b.py", "# comment\nimport os\n"),
	}
}

func TestBuildContext_Scenario(t *testing.T) {
	ctx := BuildContext(scenarioFiles())

	assert.Equal(t, 2, ctx.FileCount)
	assert.Equal(t, 4, ctx.TotalLines)
	assert.Equal(t, []string{"Python"}, ctx.Languages)
	assert.Equal(t, "📁 src/\n  📁 util/\n    🐍 b.py\n  🐍 a.py\n", ctx.Structure)
	assert.Equal(t, "This is a Python project with 2 files and 4 total lines of code. Contains 1 functions.", ctx.Summary)

	require.Len(t, ctx.Files, 2)
	assert.Equal(t, "src/a.py", ctx.Files[0].Path)
	assert.Equal(t, 2, ctx.Files[0].Lines)
	assert.Equal(t, []string{"os"}, ctx.Files[1].Structure.Imports)
	assert.Equal(t, 1, ctx.Files[1].Structure.Comments)
}

func TestBuildContext_MultipleLanguages(t *testing.T) {
	ctx := BuildContext([]analyzer_models.File{
		file("app.ts", "", "export class App {}\nfunction boot() {}"),
		file("main.py", "", "class Runner:\n    def run(self):\n        pass"),
		file("util.ts", "", "const x = 1"),
		file("Makefile.mk", "", "all:"),
	})

	assert.Equal(t, []string{"TypeScript", "Python", "MK"}, ctx.Languages)
	assert.Equal(t, "This is a TypeScript project with 4 files and 7 total lines of code."+
		" The project uses multiple languages: TypeScript, Python, MK."+
		" Contains 2 functions and 2 classes.", ctx.Summary)
	assert.Equal(t, "🔷 app.ts\n🐍 main.py\n🔷 util.ts\n📄 Makefile.mk\n", ctx.Structure)
}

func TestBuildContext_Empty(t *testing.T) {
	ctx := BuildContext(nil)

	assert.False(t, ctx.HasFiles())
	assert.Equal(t, 0, ctx.TotalLines)
	assert.Empty(t, ctx.Languages)
	assert.Equal(t, "This is a Mixed project with 0 files and 0 total lines of code.", ctx.Summary)
}

func TestSummarize_ThousandsSeparator(t *testing.T) {
	content := strings.Repeat("x = 1\n", 1500)
	ctx := BuildContext([]analyzer_models.File{file("big.py", "", content)})

	assert.Equal(t, 1500, ctx.TotalLines)
	assert.Contains(t, ctx.Summary, "1,500 total lines of code")
}

type countingAnalyzer struct {
	calls int
}

func (c *countingAnalyzer) AnalyzeStructure(f analyzer_models.File) analyzer_models.FileStructure {
	c.calls++
	return code_analyzer.AnalyzeStructure(f.Content, f.Extension)
}

func TestBuilder_UsesInjectedAnalyzer(t *testing.T) {
	analyzer := &countingAnalyzer{}
	ctx := NewBuilder(analyzer).BuildContext(scenarioFiles())

	assert.Equal(t, 2, analyzer.calls)
	assert.Equal(t, 2, ctx.FileCount)
}

func TestLanguageNameAndIcon(t *testing.T) {
	assert.Equal(t, "React TSX", LanguageName("tsx"))
	assert.Equal(t, "RS", LanguageName("rs"))
	assert.Equal(t, "", LanguageName(""))
	assert.Equal(t, "🦀", FileIcon("rs"))
	assert.Equal(t, "📄", FileIcon("zig"))
}
