package utils

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

// MarkdownRenderer highlights assistant replies line by line. Fenced blocks are highlighted with
// the language named on their opening fence and prose is highlighted as markdown.
type MarkdownRenderer struct {
	out         io.Writer
	theme       string
	isCodeBlock bool
	language    string
}

func NewMarkdownRenderer(out io.Writer, theme string) *MarkdownRenderer {
	return &MarkdownRenderer{out: out, theme: theme}
}

// DetectLanguageFromCodeBlock returns the language tag of an opening fence line, or "" when the
// line is not a fence or carries no tag.
func DetectLanguageFromCodeBlock(line string) string {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}
	fields := strings.Fields(strings.TrimPrefix(trimmed, "```"))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// Render writes content with cancellation support between lines.
func (r *MarkdownRenderer) Render(ctx context.Context, content string) error {
	for _, line := range strings.Split(content, "\n") {
		select {
		case <-ctx.Done():
			_, _ = io.WriteString(r.out, "\n\n🔄 Output interrupted...\n")
			return ctx.Err()
		default:
		}

		if err := r.renderLine(line); err != nil {
			return err
		}
	}

	r.isCodeBlock = false
	r.language = ""
	return nil
}

func (r *MarkdownRenderer) renderLine(line string) error {
	if strings.HasPrefix(strings.TrimSpace(line), "```") {
		if r.isCodeBlock {
			r.isCodeBlock = false
			r.language = ""
		} else {
			r.isCodeBlock = true
			r.language = DetectLanguageFromCodeBlock(line)
		}
		_, err := io.WriteString(r.out, line+"\n")
		return err
	}

	// Diff lines inside fences keep their add/remove colouring.
	if r.isCodeBlock && strings.HasPrefix(line, "+") {
		_, err := io.WriteString(r.out, "\x1b[92m"+line+"\x1b[0m\n")
		return err
	}
	if r.isCodeBlock && strings.HasPrefix(line, "-") {
		_, err := io.WriteString(r.out, "\x1b[91m"+line+"\x1b[0m\n")
		return err
	}

	language := "markdown"
	if r.isCodeBlock && r.language != "" {
		language = r.language
	}

	var buf bytes.Buffer
	if err := quick.Highlight(&buf, line+"\n", language, "terminal256", r.theme); err != nil {
		return err
	}
	_, err := r.out.Write(buf.Bytes())
	return err
}
