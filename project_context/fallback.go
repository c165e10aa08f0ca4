package project_context

import (
	"fmt"
	"strings"

	"github.com/meysamhadeli/patchpilot/code_analyzer/models"
	provider_models "github.com/meysamhadeli/patchpilot/providers/models"
)

var fallbackLanguages = map[string]string{
	"py":   "Python",
	"js":   "JavaScript",
	"ts":   "TypeScript",
	"jsx":  "JavaScript React",
	"tsx":  "TypeScript React",
	"java": "Java",
	"cpp":  "C++",
	"c":    "C",
	"rs":   "Rust",
	"go":   "Go",
	"php":  "PHP",
	"rb":   "Ruby",
	"lua":  "Lua",
	"html": "HTML",
	"css":  "CSS",
}

// FallbackAnalysis describes a single file without a backend: line counts, size, language
// and instructions for enabling model-backed analysis.
func FallbackAnalysis(code string, filename string) provider_models.CodeAnalysis {
	lines := strings.Split(code, "\n")
	nonEmpty := 0
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			nonEmpty++
		}
	}

	extension := models.ExtensionOf(filename)
	if extension == "" {
		extension = "txt"
	}
	language, ok := fallbackLanguages[extension]
	if !ok {
		language = "Unknown"
	}

	response := fmt.Sprintf(`## Basic Analysis (AI Offline)

**File Overview:**
• **Name:** %s
• **Language:** %s
• **Total lines:** %d
• **Code lines:** %d
• **Size:** %d characters

**Status:** ⚠️ AI analysis unavailable. This is a basic fallback analysis.

**Recommendations:**
• Install Ollama for detailed AI analysis
• Run `+"`ollama pull codellama:7b-instruct`"+` to enable smart reviews
• AI can find bugs, suggest improvements, and explain issues

**To enable AI analysis:**
1. Install Ollama from ollama.com
2. Pull the code model: `+"`ollama pull codellama:7b-instruct`"+`
3. Restart PatchPilot for full AI-powered reviews`,
		filename, language, len(lines), nonEmpty, len([]rune(code)))

	return provider_models.CodeAnalysis{
		Response: response,
		Language: strings.ToLower(language),
		Lines:    len(lines),
		Size:     len([]rune(code)),
	}
}
