package contracts

import (
	"context"

	"github.com/meysamhadeli/patchpilot/providers/models"
)

type IChatAIProvider interface {
	Name() string
	Model() string
	ChatCompletionRequest(ctx context.Context, request models.ChatRequest) <-chan models.StreamResponse
	CheckStatus(ctx context.Context) models.BackendStatus
}

// IModelInstaller is implemented by providers that can download models on demand.
type IModelInstaller interface {
	PullModel(ctx context.Context, model string) error
}
