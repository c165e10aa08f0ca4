package project_context

import "strings"

var languageNames = map[string]string{
	"py":   "Python",
	"js":   "JavaScript",
	"ts":   "TypeScript",
	"jsx":  "React JSX",
	"tsx":  "React TSX",
	"java": "Java",
	"cpp":  "C++",
	"c":    "C",
	"lua":  "Lua",
	"luau": "Luau",
	"html": "HTML",
	"css":  "CSS",
	"json": "JSON",
	"md":   "Markdown",
}

var fileIcons = map[string]string{
	"js": "🟨", "jsx": "⚛️", "ts": "🔷", "tsx": "⚛️",
	"py": "🐍", "java": "☕", "cpp": "⚙️", "c": "⚙️",
	"rs": "🦀", "go": "🐹", "php": "🐘", "rb": "💎",
	"html": "🌐", "css": "🎨", "json": "📋",
	"md": "📝", "txt": "📄", "lua": "🌙", "luau": "🌙",
}

const (
	defaultFileIcon = "📄"
	folderIcon      = "📁"
)

// LanguageName returns the display name for an extension, or the upper-cased extension when unknown.
func LanguageName(extension string) string {
	if name, ok := languageNames[extension]; ok {
		return name
	}
	return strings.ToUpper(extension)
}

// FileIcon returns the tree marker for an extension.
func FileIcon(extension string) string {
	if icon, ok := fileIcons[extension]; ok {
		return icon
	}
	return defaultFileIcon
}
