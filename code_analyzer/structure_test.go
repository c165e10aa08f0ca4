package code_analyzer

import (
	"testing"

	"github.com/meysamhadeli/patchpilot/code_analyzer/models"
	"github.com/stretchr/testify/assert"
)

func TestAnalyzeStructure_PythonFunction(t *testing.T) {
	result := AnalyzeStructure("def foo():\n    pass\n", "py")

	assert.Equal(t, []models.Symbol{{Name: "foo", Line: 1}}, result.Functions)
	assert.Empty(t, result.Classes)
	assert.Empty(t, result.Imports)
	assert.Equal(t, 0, result.Comments)
}

func TestAnalyzeStructure_PythonCommentAndImport(t *testing.T) {
	result := AnalyzeStructure("# comment\nimport os\nfrom collections import deque\n", "py")

	assert.Equal(t, 1, result.Comments)
	assert.Equal(t, []string{"os", "collections"}, result.Imports)
	assert.Empty(t, result.Functions)
}

func TestAnalyzeStructure_Table(t *testing.T) {
	tests := []struct {
		name      string
		ext       string
		content   string
		functions []models.Symbol
		classes   []models.Symbol
		imports   []string
		comments  int
	}{
		{
			name:      "javascript declarations",
			ext:       "js",
			content:   "import React from 'react';\n// helper\nfunction add(a, b) {\n  return a + b;\n}\nconst handler = (e) => e;\nconst limit = 5;\nclass Store {}",
			functions: []models.Symbol{{Name: "add", Line: 3}, {Name: "handler", Line: 6}},
			classes:   []models.Symbol{{Name: "Store", Line: 8}},
			imports:   []string{"react"},
			comments:  1,
		},
		{
			name:      "typescript typed const",
			ext:       "ts",
			content:   "const fn: Handler = () => {}\nexport class Service {\n}",
			functions: []models.Symbol{{Name: "fn", Line: 1}},
			classes:   []models.Symbol{{Name: "Service", Line: 2}},
			imports:   []string{},
		},
		{
			name:      "java method and class",
			ext:       "java",
			content:   "import java.util.List;\n\npublic class App {\n    public static void main(String[] args) {\n    }\n}",
			functions: []models.Symbol{{Name: "main", Line: 4}},
			classes:   []models.Symbol{{Name: "App", Line: 3}},
			imports:   []string{"java.util.List"},
		},
		{
			name:      "python class with base",
			ext:       "py",
			content:   "class Foo(Base):\n    def bar(self):\n        pass\n    def bar(self):\n        pass",
			functions: []models.Symbol{{Name: "bar", Line: 2}, {Name: "bar", Line: 4}},
			classes:   []models.Symbol{{Name: "Foo", Line: 1}},
			imports:   []string{},
		},
		{
			name:      "c includes only",
			ext:       "c",
			content:   "#include <stdio.h>\n#include \"local.h\"\n/* block */\nint main(void) { return 0; }",
			functions: []models.Symbol{},
			classes:   []models.Symbol{},
			imports:   []string{"stdio.h", "local.h"},
			comments:  1,
		},
		{
			name:      "lua",
			ext:       "lua",
			content:   "-- module\nlocal function helper(x)\nend",
			functions: []models.Symbol{{Name: "helper", Line: 2}},
			classes:   []models.Symbol{},
			imports:   []string{},
			comments:  1,
		},
		{
			name:      "upper-case extension",
			ext:       "PY",
			content:   "def go():\n  pass",
			functions: []models.Symbol{{Name: "go", Line: 1}},
			classes:   []models.Symbol{},
			imports:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AnalyzeStructure(tt.content, tt.ext)

			assert.Equal(t, tt.functions, result.Functions)
			assert.Equal(t, tt.classes, result.Classes)
			assert.Equal(t, tt.imports, result.Imports)
			assert.Equal(t, tt.comments, result.Comments)
		})
	}
}

func TestAnalyzeStructure_UnsupportedExtension(t *testing.T) {
	result := AnalyzeStructure("def foo():\n# comment\nclass Bar\nrequire 'x'", "rb")

	assert.Empty(t, result.Functions)
	assert.Empty(t, result.Classes)
	assert.Empty(t, result.Imports)
	assert.Equal(t, 0, result.Comments)
	assert.False(t, SupportsStructure("rb"))
	assert.True(t, SupportsStructure("tsx"))
}

func TestAnalyzeStructure_Deterministic(t *testing.T) {
	content := "import os\nclass A:\n    def f(self):\n        # note\n        return 1\n"

	assert.Equal(t, AnalyzeStructure(content, "py"), AnalyzeStructure(content, "py"))
}
