package code_analyzer

import (
	"strings"

	"github.com/meysamhadeli/patchpilot/code_analyzer/models"
)

// AnalyzeStructure scans content line by line and collects functions, classes, imports
// and comment lines using the pattern table for extension. It is a lexical heuristic:
// every matching line contributes an entry and multi-line declarations are not joined.
func AnalyzeStructure(content string, extension string) models.FileStructure {
	structure := models.FileStructure{
		Functions: []models.Symbol{},
		Classes:   []models.Symbol{},
		Imports:   []string{},
	}

	patterns, ok := structurePatterns[strings.ToLower(extension)]
	if !ok {
		return structure
	}

	for index, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		lineNumber := index + 1

		if isComment(trimmed, patterns.commentPrefixes) {
			structure.Comments++
		}

		if name, found := firstGroup(patterns.function, trimmed); found {
			structure.Functions = append(structure.Functions, models.Symbol{Name: name, Line: lineNumber})
		}

		if name, found := firstGroup(patterns.class, trimmed); found {
			structure.Classes = append(structure.Classes, models.Symbol{Name: name, Line: lineNumber})
		}

		if target, found := firstGroup(patterns.imports, trimmed); found {
			structure.Imports = append(structure.Imports, target)
		}
	}

	return structure
}

func isComment(line string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// SupportsStructure reports whether the extension has a pattern set.
func SupportsStructure(extension string) bool {
	_, ok := structurePatterns[strings.ToLower(extension)]
	return ok
}
