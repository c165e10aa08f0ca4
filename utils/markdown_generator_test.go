package utils

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectLanguageFromCodeBlock(t *testing.T) {
	assert.Equal(t, "python", DetectLanguageFromCodeBlock("```python"))
	assert.Equal(t, "go", DetectLanguageFromCodeBlock("  ```Go title"))
	assert.Equal(t, "", DetectLanguageFromCodeBlock("```"))
	assert.Equal(t, "", DetectLanguageFromCodeBlock("plain text"))
}

func TestMarkdownRenderer_DiffLinesInsideFence(t *testing.T) {
	var out bytes.Buffer
	renderer := NewMarkdownRenderer(&out, "dracula")

	err := renderer.Render(context.Background(), "```diff\n+added\n-removed\n```")
	require.NoError(t, err)

	assert.Contains(t, out.String(), "\x1b[92m+added\x1b[0m")
	assert.Contains(t, out.String(), "\x1b[91m-removed\x1b[0m")
	assert.False(t, renderer.isCodeBlock)
}

func TestMarkdownRenderer_ListOutsideFenceIsNotDiff(t *testing.T) {
	var out bytes.Buffer
	renderer := NewMarkdownRenderer(&out, "dracula")

	require.NoError(t, renderer.Render(context.Background(), "- item"))

	assert.NotContains(t, out.String(), "\x1b[91m- item")
	assert.Contains(t, out.String(), "item")
}

func TestMarkdownRenderer_Cancelled(t *testing.T) {
	var out bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewMarkdownRenderer(&out, "dracula").Render(ctx, "hello")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, out.String(), "Output interrupted")
}
