package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/meysamhadeli/patchpilot/code_analyzer/models"
	"github.com/meysamhadeli/patchpilot/project_context"
	"github.com/meysamhadeli/patchpilot/providers/contracts"
	provider_models "github.com/meysamhadeli/patchpilot/providers/models"
	"github.com/rs/zerolog"
)

const askSystemPrompt = "You are PatchPilot, a helpful coding assistant. Answer clearly and include code when it helps."

// Backend runs the request/response calls of the inference backend on top of a streaming provider.
type Backend struct {
	provider contracts.IChatAIProvider
	logger   zerolog.Logger
}

func NewBackend(provider contracts.IChatAIProvider, logger zerolog.Logger) *Backend {
	return &Backend{
		provider: provider,
		logger:   logger.With().Str("component", "backend").Logger(),
	}
}

// Provider returns the underlying streaming provider.
func (b *Backend) Provider() contracts.IChatAIProvider {
	return b.provider
}

// Status probes the backend. It never fails; an unreachable backend is reported as unavailable.
func (b *Backend) Status(ctx context.Context) provider_models.BackendStatus {
	status := b.provider.CheckStatus(ctx)
	if status.Models == nil {
		status.Models = []string{}
	}
	return status
}

// ErrInstallUnsupported is returned by InstallModel for providers that cannot download models.
var ErrInstallUnsupported = errors.New("this provider cannot install models")

// InstallModel downloads model through the provider when it supports it.
func (b *Backend) InstallModel(ctx context.Context, model string) error {
	installer, ok := b.provider.(contracts.IModelInstaller)
	if !ok {
		return fmt.Errorf("%w: %s", ErrInstallUnsupported, b.provider.Name())
	}
	return installer.PullModel(ctx, model)
}

// Ask sends a free-form question and returns the full answer.
func (b *Backend) Ask(ctx context.Context, question string) (string, error) {
	return Collect(ctx, b.provider.ChatCompletionRequest(ctx, provider_models.ChatRequest{
		SystemPrompt: askSystemPrompt,
		UserInput:    question,
	}))
}

// Chat sends a fully assembled request and returns the full answer.
func (b *Backend) Chat(ctx context.Context, request provider_models.ChatRequest) (string, error) {
	return Collect(ctx, b.provider.ChatCompletionRequest(ctx, request))
}

// AnalyzeCode reviews a single file. When the backend fails the offline analysis is returned
// with BasicMode set, so the caller always has something to show.
func (b *Backend) AnalyzeCode(ctx context.Context, code string, filename string) provider_models.CodeAnalysis {
	language := strings.ToLower(project_context.LanguageName(models.ExtensionOf(filename)))
	lines := len(strings.Split(code, "\n"))

	answer, err := Collect(ctx, b.provider.ChatCompletionRequest(ctx, provider_models.ChatRequest{
		SystemPrompt: askSystemPrompt,
		UserInput:    analysisPrompt(code, language, filename),
	}))
	if err != nil || strings.TrimSpace(answer) == "" {
		b.logger.Warn().Err(err).Str("file", filename).Msg("code analysis fell back to basic mode")
		analysis := project_context.FallbackAnalysis(code, filename)
		analysis.BasicMode = true
		return analysis
	}

	return provider_models.CodeAnalysis{
		Response: answer,
		Language: language,
		Lines:    lines,
		Size:     len([]rune(code)),
	}
}

func analysisPrompt(code string, language string, filename string) string {
	return fmt.Sprintf(`Analyze this %s code from file "%s".

Please provide:
1. **Overview**: Brief summary of what the code does
2. **Issues Found**: List bugs, inefficiencies, and improvements
3. **Explanations**: Explain each issue in simple terms
4. **Severity**: Rate each issue as Critical/High/Medium/Low
5. **Fixed Code**: Provide the corrected version if issues found

Here is the code to analyze:

`+"```"+`%s
%s
`+"```"+`

Format your response in a structured way that's easy to parse. Be conversational but thorough.`, language, filename, language, code)
}

// Collect drains a provider stream into a single string. The first streamed error is returned.
func Collect(ctx context.Context, stream <-chan provider_models.StreamResponse) (string, error) {
	var builder strings.Builder
	for {
		select {
		case <-ctx.Done():
			return builder.String(), ctx.Err()
		case response, ok := <-stream:
			if !ok {
				return builder.String(), nil
			}
			if response.Err != nil {
				return builder.String(), response.Err
			}
			if response.Done {
				return builder.String(), nil
			}
			builder.WriteString(response.Content)
		}
	}
}
