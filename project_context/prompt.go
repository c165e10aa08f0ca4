package project_context

import (
	"fmt"
	"strings"

	"github.com/meysamhadeli/patchpilot/project_context/models"
	provider_models "github.com/meysamhadeli/patchpilot/providers/models"
)

// HistoryWindow is the number of trailing chat messages included in a prompt.
const HistoryWindow = 3

// ContextPrompt renders ctx as the markdown block sent to the backend as system prompt.
func ContextPrompt(ctx models.ProjectContext) string {
	var builder strings.Builder

	builder.WriteString("## Project Context\n\n")
	fmt.Fprintf(&builder, "**Project Structure:**\n```\n%s\n```\n\n", ctx.Structure)
	fmt.Fprintf(&builder, "**Summary:** %s\n\n", ctx.Summary)

	builder.WriteString("**Files in Context:**\n")
	for _, file := range ctx.Files {
		fmt.Fprintf(&builder, "\n### %s\n", file.Path)
		fmt.Fprintf(&builder, "- **Language:** %s\n", LanguageName(file.Extension))
		fmt.Fprintf(&builder, "- **Size:** %d lines, %.1fKB\n", file.Lines, float64(file.Size)/1024)

		if names := symbolNames(file.Structure.Functions, ""); len(names) > 0 {
			fmt.Fprintf(&builder, "- **Functions:** %s\n", strings.Join(names, ", "))
		}
		if names := symbolNames(file.Structure.Classes, ""); len(names) > 0 {
			fmt.Fprintf(&builder, "- **Classes:** %s\n", strings.Join(names, ", "))
		}

		fmt.Fprintf(&builder, "\n**Code:**\n```%s\n%s\n```\n", file.Extension, file.Content)
	}

	return builder.String()
}

// BuildChatRequest pairs the context prompt with the last HistoryWindow messages and the user input.
func BuildChatRequest(ctx models.ProjectContext, history []provider_models.Message, userInput string) provider_models.ChatRequest {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}

	return provider_models.ChatRequest{
		SystemPrompt: ContextPrompt(ctx),
		History:      append([]provider_models.Message(nil), history...),
		UserInput:    userInput,
	}
}
