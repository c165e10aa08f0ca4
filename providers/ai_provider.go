package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einoollama "github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/meysamhadeli/patchpilot/providers/contracts"
	"github.com/meysamhadeli/patchpilot/providers/eino"
	"github.com/meysamhadeli/patchpilot/providers/ollama"
	contracts2 "github.com/meysamhadeli/patchpilot/token_management/contracts"
	"github.com/rs/zerolog"
)

const (
	ProviderOllama     = "ollama"
	ProviderOpenAI     = "openai"
	ProviderEinoOllama = "eino-ollama"

	DefaultModel = "codellama:7b-instruct"
)

// AIProviderConfig selects and configures the inference backend.
type AIProviderConfig struct {
	Provider    string   `mapstructure:"provider" json:"provider" validate:"required,oneof=ollama openai eino-ollama"`
	BaseURL     string   `mapstructure:"base_url" json:"base_url"`
	Model       string   `mapstructure:"model" json:"model"`
	APIKey      string   `mapstructure:"api_key" json:"api_key"`
	Temperature *float32 `mapstructure:"temperature" json:"temperature"`
}

// ProviderFactory builds the provider named by config.Provider.
func ProviderFactory(ctx context.Context, config *AIProviderConfig, tokenManagement contracts2.ITokenManagement, logger zerolog.Logger) (contracts.IChatAIProvider, error) {
	if config == nil {
		return nil, errors.New("provider configuration is required")
	}

	model := config.Model
	if model == "" {
		model = DefaultModel
	}

	switch strings.ToLower(config.Provider) {
	case ProviderOllama:
		return ollama.NewOllamaChatProvider(&ollama.OllamaConfig{
			BaseURL:         config.BaseURL,
			ChatModel:       model,
			Temperature:     config.Temperature,
			TokenManagement: tokenManagement,
			Logger:          logger,
		}), nil

	case ProviderOpenAI:
		if config.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			Model:       model,
			APIKey:      config.APIKey,
			BaseURL:     config.BaseURL,
			Temperature: config.Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai chat model: %w", err)
		}
		return eino.NewEinoChatProvider(&eino.EinoConfig{
			ProviderName:    ProviderOpenAI,
			ChatModel:       model,
			Client:          chatModel,
			TokenManagement: tokenManagement,
			Logger:          logger,
		}), nil

	case ProviderEinoOllama:
		baseURL := strings.TrimSuffix(strings.TrimSuffix(config.BaseURL, "/"), "/api")
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		chatModel, err := einoollama.NewChatModel(ctx, &einoollama.ChatModelConfig{
			BaseURL: baseURL,
			Model:   model,
		})
		if err != nil {
			return nil, fmt.Errorf("create ollama chat model: %w", err)
		}
		return eino.NewEinoChatProvider(&eino.EinoConfig{
			ProviderName:    ProviderEinoOllama,
			ChatModel:       model,
			Client:          chatModel,
			TokenManagement: tokenManagement,
			Logger:          logger,
		}), nil

	default:
		return nil, fmt.Errorf("unsupported provider: %s (supported: ollama, openai, eino-ollama)", config.Provider)
	}
}
