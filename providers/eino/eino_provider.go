package eino

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/meysamhadeli/patchpilot/providers/contracts"
	"github.com/meysamhadeli/patchpilot/providers/models"
	contracts2 "github.com/meysamhadeli/patchpilot/token_management/contracts"
	"github.com/rs/zerolog"
)

// EinoConfig adapts an eino chat model to the provider interface.
type EinoConfig struct {
	ProviderName    string
	ChatModel       string
	Client          model.BaseChatModel
	TokenManagement contracts2.ITokenManagement
	Logger          zerolog.Logger
}

// NewEinoChatProvider wraps config.Client.
func NewEinoChatProvider(config *EinoConfig) contracts.IChatAIProvider {
	return &EinoConfig{
		ProviderName:    config.ProviderName,
		ChatModel:       config.ChatModel,
		Client:          config.Client,
		TokenManagement: config.TokenManagement,
		Logger:          config.Logger.With().Str("component", "eino").Str("provider", config.ProviderName).Logger(),
	}
}

func (einoProvider *EinoConfig) Name() string {
	return einoProvider.ProviderName
}

func (einoProvider *EinoConfig) Model() string {
	return einoProvider.ChatModel
}

// CheckStatus reports the configured model. Hosted providers expose no model listing, so a
// constructed client is considered available.
func (einoProvider *EinoConfig) CheckStatus(ctx context.Context) models.BackendStatus {
	if einoProvider.Client == nil {
		return models.BackendStatus{Available: false, Models: []string{}, Error: "chat model is not configured"}
	}
	return models.BackendStatus{Available: true, Models: []string{einoProvider.ChatModel}}
}

func toSchemaMessages(request models.ChatRequest) []*schema.Message {
	messages := []*schema.Message{schema.SystemMessage(request.SystemPrompt)}
	for _, message := range request.History {
		if message.Role == string(schema.Assistant) {
			messages = append(messages, schema.AssistantMessage(message.Content, nil))
			continue
		}
		messages = append(messages, schema.UserMessage(message.Content))
	}
	return append(messages, schema.UserMessage(request.UserInput))
}

func (einoProvider *EinoConfig) ChatCompletionRequest(ctx context.Context, request models.ChatRequest) <-chan models.StreamResponse {
	responseChan := make(chan models.StreamResponse)

	go func() {
		defer close(responseChan)

		send := func(response models.StreamResponse) bool {
			select {
			case responseChan <- response:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if einoProvider.Client == nil {
			send(models.StreamResponse{Err: errors.New("chat model is not configured")})
			return
		}

		stream, err := einoProvider.Client.Stream(ctx, toSchemaMessages(request))
		if err != nil {
			send(models.StreamResponse{Err: fmt.Errorf("stream: %w", err)})
			return
		}
		defer stream.Close()

		for {
			chunk, err := stream.Recv()
			if err == io.EOF {
				break
			}
			if err != nil {
				send(models.StreamResponse{Err: fmt.Errorf("recv stream: %w", err)})
				return
			}

			if chunk.ResponseMeta != nil && chunk.ResponseMeta.Usage != nil && einoProvider.TokenManagement != nil {
				usage := chunk.ResponseMeta.Usage
				einoProvider.TokenManagement.UsedTokens(usage.PromptTokens, usage.CompletionTokens)
			}

			if chunk.Content != "" {
				if !send(models.StreamResponse{Content: chunk.Content}) {
					return
				}
			}
		}

		send(models.StreamResponse{Done: true})
	}()

	return responseChan
}
