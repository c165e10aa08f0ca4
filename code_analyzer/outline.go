package code_analyzer

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/meysamhadeli/patchpilot/code_analyzer/models"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

type outlineGrammar struct {
	language *sitter.Language
	query    string
}

// Capture names double as the outline entry kind.
var outlineGrammars = map[string]outlineGrammar{
	"go": {golang.GetLanguage(), `
(function_declaration name: (identifier) @function)
(method_declaration name: (field_identifier) @method)
(type_spec name: (type_identifier) @type)`},
	"py": {python.GetLanguage(), `
(function_definition name: (identifier) @function)
(class_definition name: (identifier) @class)`},
	"js": {javascript.GetLanguage(), `
(function_declaration name: (identifier) @function)
(class_declaration name: (identifier) @class)
(method_definition name: (property_identifier) @method)`},
	"jsx": {javascript.GetLanguage(), `
(function_declaration name: (identifier) @function)
(class_declaration name: (identifier) @class)
(method_definition name: (property_identifier) @method)`},
	"ts": {typescript.GetLanguage(), `
(function_declaration name: (identifier) @function)
(class_declaration name: (type_identifier) @class)
(interface_declaration name: (type_identifier) @interface)
(method_definition name: (property_identifier) @method)`},
	"tsx": {tsx.GetLanguage(), `
(function_declaration name: (identifier) @function)
(class_declaration name: (type_identifier) @class)
(interface_declaration name: (type_identifier) @interface)
(method_definition name: (property_identifier) @method)`},
	"java": {java.GetLanguage(), `
(class_declaration name: (identifier) @class)
(interface_declaration name: (identifier) @interface)
(method_declaration name: (identifier) @method)`},
	"cs": {csharp.GetLanguage(), `
(class_declaration name: (identifier) @class)
(interface_declaration name: (identifier) @interface)
(method_declaration name: (identifier) @method)`},
}

// Outline lists the declarations of a file using a syntax tree where a grammar is available,
// a line scanner for Rust and Zig, and nothing otherwise. Entries are ordered by line.
func Outline(ctx context.Context, content string, extension string) ([]models.OutlineEntry, error) {
	extension = strings.ToLower(extension)

	switch extension {
	case "rs":
		return scanOutline(content, rustOutlineRules), nil
	case "zig":
		return scanOutline(content, zigOutlineRules), nil
	}

	grammar, ok := outlineGrammars[extension]
	if !ok {
		return []models.OutlineEntry{}, nil
	}

	source := []byte(content)
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar.language)

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s source: %w", extension, err)
	}
	defer tree.Close()

	query, err := sitter.NewQuery([]byte(grammar.query), grammar.language)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s outline query: %w", extension, err)
	}
	defer query.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(query, tree.RootNode())

	entries := []models.OutlineEntry{}
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}

		for _, capture := range match.Captures {
			entries = append(entries, models.OutlineEntry{
				Kind: query.CaptureNameForId(capture.Index),
				Name: capture.Node.Content(source),
				Line: int(capture.Node.StartPoint().Row) + 1,
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Line < entries[j].Line
	})

	return entries, nil
}

type outlineRule struct {
	kind    string
	pattern *regexp.Regexp
}

// Rules are tried in order and the first match wins for a line.
var rustOutlineRules = []outlineRule{
	{"function", regexp.MustCompile(`^\s*(?:pub\s+)?fn\s+(\w+)`)},
	{"struct", regexp.MustCompile(`^\s*(?:pub\s+)?struct\s+(\w+)`)},
	{"enum", regexp.MustCompile(`^\s*(?:pub\s+)?enum\s+(\w+)`)},
	{"trait", regexp.MustCompile(`^\s*(?:pub\s+)?trait\s+(\w+)`)},
	{"impl", regexp.MustCompile(`^\s*impl(?:\s*<[^>]*>)?\s+(?:\w+\s+for\s+)?(\w+)`)},
	{"mod", regexp.MustCompile(`^\s*(?:pub\s+)?mod\s+(\w+)`)},
	{"const", regexp.MustCompile(`^\s*(?:pub\s+)?const\s+(\w+)`)},
	{"static", regexp.MustCompile(`^\s*(?:pub\s+)?static\s+(\w+)`)},
}

var zigOutlineRules = []outlineRule{
	{"test", regexp.MustCompile(`^\s*test\s+"([^"]+)"`)},
	{"struct", regexp.MustCompile(`^\s*(?:pub\s+)?const\s+(\w+)\s*=\s*struct`)},
	{"enum", regexp.MustCompile(`^\s*(?:pub\s+)?const\s+(\w+)\s*=\s*enum`)},
	{"union", regexp.MustCompile(`^\s*(?:pub\s+)?const\s+(\w+)\s*=\s*union`)},
	{"function", regexp.MustCompile(`^\s*(?:pub\s+)?fn\s+(\w+)`)},
	{"const", regexp.MustCompile(`^\s*(?:pub\s+)?const\s+(\w+)`)},
	{"var", regexp.MustCompile(`^\s*(?:pub\s+)?var\s+(\w+)`)},
}

func scanOutline(content string, rules []outlineRule) []models.OutlineEntry {
	entries := []models.OutlineEntry{}
	for index, line := range strings.Split(content, "\n") {
		for _, rule := range rules {
			if matches := rule.pattern.FindStringSubmatch(line); matches != nil {
				entries = append(entries, models.OutlineEntry{Kind: rule.kind, Name: matches[1], Line: index + 1})
				break
			}
		}
	}
	return entries
}

// FormatOutline renders entries one per line as "kind: name".
func FormatOutline(entries []models.OutlineEntry) string {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, fmt.Sprintf("%s: %s", entry.Kind, entry.Name))
	}
	return strings.Join(lines, "\n")
}
