package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/meysamhadeli/patchpilot/providers/models"
	"github.com/meysamhadeli/patchpilot/token_management"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	chunks   []string
	err      error
	status   models.BackendStatus
	requests []models.ChatRequest
}

func (p *scriptedProvider) Name() string  { return "scripted" }
func (p *scriptedProvider) Model() string { return "scripted-code" }

func (p *scriptedProvider) CheckStatus(ctx context.Context) models.BackendStatus {
	return p.status
}

func (p *scriptedProvider) ChatCompletionRequest(ctx context.Context, request models.ChatRequest) <-chan models.StreamResponse {
	p.requests = append(p.requests, request)
	out := make(chan models.StreamResponse, len(p.chunks)+1)
	for _, chunk := range p.chunks {
		out <- models.StreamResponse{Content: chunk}
	}
	if p.err != nil {
		out <- models.StreamResponse{Err: p.err}
	} else {
		out <- models.StreamResponse{Done: true}
	}
	close(out)
	return out
}

func TestBackend_Ask(t *testing.T) {
	provider := &scriptedProvider{chunks: []string{"Use ", "a map."}}
	backend := NewBackend(provider, zerolog.Nop())

	answer, err := backend.Ask(context.Background(), "how do I dedupe?")

	require.NoError(t, err)
	assert.Equal(t, "Use a map.", answer)
	require.Len(t, provider.requests, 1)
	assert.Equal(t, "how do I dedupe?", provider.requests[0].UserInput)
	assert.Contains(t, provider.requests[0].SystemPrompt, "PatchPilot")
}

func TestBackend_AnalyzeCode(t *testing.T) {
	provider := &scriptedProvider{chunks: []string{"**Overview**: prints"}}
	backend := NewBackend(provider, zerolog.Nop())

	analysis := backend.AnalyzeCode(context.Background(), "print(1)\nprint(2)", "main.py")

	assert.False(t, analysis.BasicMode)
	assert.Equal(t, "**Overview**: prints", analysis.Response)
	assert.Equal(t, "python", analysis.Language)
	assert.Equal(t, 2, analysis.Lines)
	assert.Contains(t, provider.requests[0].UserInput, `from file "main.py"`)
	assert.Contains(t, provider.requests[0].UserInput, "```python\nprint(1)")
}

func TestBackend_AnalyzeCodeFallsBack(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("connection refused")}
	backend := NewBackend(provider, zerolog.Nop())

	analysis := backend.AnalyzeCode(context.Background(), "x = 1\n\ny = 2", "calc.py")

	assert.True(t, analysis.BasicMode)
	assert.Equal(t, "python", analysis.Language)
	assert.Contains(t, analysis.Response, "Basic Analysis (AI Offline)")
}

func TestBackend_Status(t *testing.T) {
	backend := NewBackend(&scriptedProvider{status: models.BackendStatus{Available: false, Error: "down"}}, zerolog.Nop())

	status := backend.Status(context.Background())

	assert.False(t, status.Available)
	assert.NotNil(t, status.Models)
	assert.Equal(t, "down", status.Error)
}

func TestCollect_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Collect(ctx, make(chan models.StreamResponse))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestProviderFactory(t *testing.T) {
	tokens := token_management.NewTokenManager()

	provider, err := ProviderFactory(context.Background(), &AIProviderConfig{Provider: "ollama"}, tokens, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, ProviderOllama, provider.Name())
	assert.Equal(t, DefaultModel, provider.Model())

	_, err = ProviderFactory(context.Background(), &AIProviderConfig{Provider: "openai", Model: "gpt-4o"}, tokens, zerolog.Nop())
	assert.ErrorContains(t, err, "API key is required")

	_, err = ProviderFactory(context.Background(), &AIProviderConfig{Provider: "bard"}, tokens, zerolog.Nop())
	assert.ErrorContains(t, err, "unsupported provider")

	_, err = ProviderFactory(context.Background(), nil, tokens, zerolog.Nop())
	assert.Error(t, err)
}

type installingProvider struct {
	scriptedProvider
	pulled []string
}

func (p *installingProvider) PullModel(ctx context.Context, model string) error {
	p.pulled = append(p.pulled, model)
	return nil
}

func TestBackend_InstallModel(t *testing.T) {
	provider := &installingProvider{}
	backend := NewBackend(provider, zerolog.Nop())

	require.NoError(t, backend.InstallModel(context.Background(), "codellama:7b-instruct"))
	assert.Equal(t, []string{"codellama:7b-instruct"}, provider.pulled)
}

func TestBackend_InstallModelUnsupported(t *testing.T) {
	backend := NewBackend(&scriptedProvider{}, zerolog.Nop())

	err := backend.InstallModel(context.Background(), "gpt-4o")

	assert.ErrorIs(t, err, ErrInstallUnsupported)
	assert.Contains(t, err.Error(), "scripted")
}
