package code_analyzer

import "regexp"

// languagePatterns is the lexical rule set applied to every trimmed line of a file.
// A nil regex means the concern is not scanned for that extension.
type languagePatterns struct {
	commentPrefixes []string
	function        *regexp.Regexp
	class           *regexp.Regexp
	imports         *regexp.Regexp
}

var (
	cStyleComments = []string{"//", "/*"}
	luaComments    = []string{"--"}

	pyFunction  = regexp.MustCompile(`def\s+(\w+)\s*\(`)
	jsFunction  = regexp.MustCompile(`(?:function\s+(\w+)|const\s+(\w+)\s*=|let\s+(\w+)\s*=|var\s+(\w+)\s*=).*\(`)
	jsxFunction = regexp.MustCompile(`(?:function\s+(\w+)|const\s+(\w+)\s*=).*\(`)
	tsFunction  = regexp.MustCompile(`(?:function\s+(\w+)|const\s+(\w+)\s*:|let\s+(\w+)\s*:).*\(`)
	javaMethod  = regexp.MustCompile(`(?:public|private|protected)?\s*(?:static)?\s*\w+\s+(\w+)\s*\(`)
	cppFunction = regexp.MustCompile(`\w+\s+(\w+)\s*\(`)
	luaFunction = regexp.MustCompile(`function\s+(\w+)\s*\(`)

	plainClass = regexp.MustCompile(`class\s+(\w+)`)
	javaClass  = regexp.MustCompile(`(?:public|private|protected)?\s*class\s+(\w+)`)

	pyImport      = regexp.MustCompile(`(?:import\s+(\w+)|from\s+(\w+)\s+import)`)
	esImport      = regexp.MustCompile(`import.*from\s+['"]([^'"]+)['"]`)
	javaImport    = regexp.MustCompile(`import\s+([^;]+)`)
	includeImport = regexp.MustCompile(`#include\s*[<"]([^>"]+)[>"]`)
)

// structurePatterns maps a lower-cased extension to its rule set. Extensions missing here
// produce an empty FileStructure.
var structurePatterns = map[string]languagePatterns{
	"py":   {commentPrefixes: []string{"#"}, function: pyFunction, class: plainClass, imports: pyImport},
	"js":   {commentPrefixes: cStyleComments, function: jsFunction, class: plainClass, imports: esImport},
	"jsx":  {commentPrefixes: cStyleComments, function: jsxFunction, class: plainClass, imports: esImport},
	"ts":   {commentPrefixes: cStyleComments, function: tsFunction, class: plainClass, imports: esImport},
	"tsx":  {commentPrefixes: cStyleComments, function: tsFunction, class: plainClass, imports: esImport},
	"java": {commentPrefixes: cStyleComments, function: javaMethod, class: javaClass, imports: javaImport},
	"cpp":  {commentPrefixes: cStyleComments, function: cppFunction, class: plainClass, imports: includeImport},
	"c":    {commentPrefixes: cStyleComments, imports: includeImport},
	"lua":  {commentPrefixes: luaComments, function: luaFunction},
	"luau": {commentPrefixes: luaComments, function: luaFunction},
	"html": {commentPrefixes: []string{"<!--"}},
	"css":  {commentPrefixes: []string{"/*"}},
}

// firstGroup returns the first non-empty capture group of re on line.
func firstGroup(re *regexp.Regexp, line string) (string, bool) {
	if re == nil {
		return "", false
	}
	matches := re.FindStringSubmatch(line)
	if matches == nil {
		return "", false
	}
	for _, group := range matches[1:] {
		if group != "" {
			return group, true
		}
	}
	return "", false
}
