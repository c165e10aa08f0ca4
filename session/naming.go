package session

import (
	"strings"

	"github.com/meysamhadeli/patchpilot/code_analyzer/models"
)

// SmartName derives a chat name from the chat's files, the file being discussed and the user's
// message. Multi-file chats are named after the first extension seen and the kind of request.
func SmartName(files []models.File, filename string, userMessage string) string {
	if len(files) > 1 {
		primary := "Code"
		for _, file := range files {
			if file.Extension != "" {
				primary = strings.ToUpper(file.Extension)
				break
			}
		}

		message := strings.ToLower(userMessage)
		switch {
		case strings.Contains(message, "analyze") || strings.Contains(message, "review"):
			return primary + " Project Analysis"
		case strings.Contains(message, "improve") || strings.Contains(message, "optimize"):
			return primary + " Project Enhancement"
		case strings.Contains(message, "bug") || strings.Contains(message, "fix"):
			return primary + " Bug Investigation"
		default:
			return primary + " Project Review"
		}
	}

	if filename != "" {
		base, _, _ := strings.Cut(filename, ".")
		if base == "" {
			base = filename
		}
		return base + " Analysis"
	}

	return "Coding Discussion"
}

// IsDefaultName reports whether name is one the manager assigned ("New Chat" or "Chat N"),
// i.e. one that may be replaced by SmartName.
func IsDefaultName(name string) bool {
	if name == "New Chat" {
		return true
	}
	number, found := strings.CutPrefix(name, "Chat ")
	if !found || number == "" {
		return false
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
