package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/meysamhadeli/patchpilot/providers/contracts"
	"github.com/meysamhadeli/patchpilot/providers/models"
	ollama_models "github.com/meysamhadeli/patchpilot/providers/ollama/models"
	contracts2 "github.com/meysamhadeli/patchpilot/token_management/contracts"
	"github.com/rs/zerolog"
)

// OllamaConfig implements the Provider interface for a local Ollama server.
type OllamaConfig struct {
	BaseURL         string
	ChatModel       string
	Temperature     *float32
	HTTPClient      *http.Client
	TokenManagement contracts2.ITokenManagement
	Logger          zerolog.Logger
}

const (
	defaultBaseURL = "http://localhost:11434/api"
	statusTimeout  = 5 * time.Second
)

// NewOllamaChatProvider initializes a new Ollama provider.
func NewOllamaChatProvider(config *OllamaConfig) contracts.IChatAIProvider {
	// Set default BaseURL if empty
	baseURL := strings.TrimSuffix(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &OllamaConfig{
		BaseURL:         baseURL,
		ChatModel:       config.ChatModel,
		Temperature:     config.Temperature,
		HTTPClient:      client,
		TokenManagement: config.TokenManagement,
		Logger:          config.Logger.With().Str("component", "ollama").Logger(),
	}
}

func (ollamaProvider *OllamaConfig) Name() string {
	return "ollama"
}

func (ollamaProvider *OllamaConfig) Model() string {
	return ollamaProvider.ChatModel
}

// CheckStatus lists the installed models. Any failure is reported as an unavailable backend.
func (ollamaProvider *OllamaConfig) CheckStatus(ctx context.Context) models.BackendStatus {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/tags", ollamaProvider.BaseURL), nil)
	if err != nil {
		return unavailable(err)
	}

	resp, err := ollamaProvider.HTTPClient.Do(req)
	if err != nil {
		ollamaProvider.Logger.Debug().Err(err).Msg("ollama status probe failed")
		return unavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return unavailable(fmt.Errorf("status probe failed with status code '%d'", resp.StatusCode))
	}

	var tags ollama_models.OllamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return unavailable(fmt.Errorf("error decoding tags: %w", err))
	}

	names := make([]string, 0, len(tags.Models))
	for _, model := range tags.Models {
		names = append(names, model.Name)
	}

	return models.BackendStatus{Available: true, Models: names}
}

func unavailable(err error) models.BackendStatus {
	return models.BackendStatus{Available: false, Models: []string{}, Error: err.Error()}
}

func (ollamaProvider *OllamaConfig) ChatCompletionRequest(ctx context.Context, request models.ChatRequest) <-chan models.StreamResponse {
	responseChan := make(chan models.StreamResponse)
	var markdownBuffer strings.Builder // Buffer to accumulate content until newline

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

		messages := []ollama_models.Message{{Role: "system", Content: request.SystemPrompt}}
		for _, message := range request.History {
			messages = append(messages, ollama_models.Message{Role: message.Role, Content: message.Content})
		}
		messages = append(messages, ollama_models.Message{Role: "user", Content: request.UserInput})

		// Prepare the request body
		reqBody := ollama_models.OllamaChatCompletionRequest{
			Model:    ollamaProvider.ChatModel,
			Messages: messages,
			Stream:   true,
		}
		if ollamaProvider.Temperature != nil {
			reqBody.Options = &ollama_models.Options{Temperature: ollamaProvider.Temperature}
		}

		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			send(models.StreamResponse{Err: fmt.Errorf("error marshalling request body: %w", err)})
			return
		}

		// Create a new HTTP request
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/chat", ollamaProvider.BaseURL), bytes.NewBuffer(jsonData))
		if err != nil {
			send(models.StreamResponse{Err: fmt.Errorf("error creating request: %w", err)})
			return
		}

		req.Header.Set("Content-Type", "application/json")

		resp, err := ollamaProvider.HTTPClient.Do(req)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				send(models.StreamResponse{Err: fmt.Errorf("request canceled: %w", err)})
				return
			}
			send(models.StreamResponse{Err: fmt.Errorf("error sending request: %w", err)})
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			var apiError ollama_models.OllamaErrorResponse
			message := strings.TrimSpace(string(body))
			if err := json.Unmarshal(body, &apiError); err == nil && apiError.Error != "" {
				message = apiError.Error
			}

			send(models.StreamResponse{Err: &models.AIError{
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("API request failed with status code '%d' - %s", resp.StatusCode, message),
			}})
			return
		}

		reader := bufio.NewReader(resp.Body)

		// Stream processing
		for {
			line, readErr := reader.ReadString('\n')

			if strings.TrimSpace(line) != "" {
				var response ollama_models.OllamaChatCompletionResponse
				if err := json.Unmarshal([]byte(line), &response); err != nil {
					send(models.StreamResponse{Err: fmt.Errorf("error unmarshalling chunk: %w", err)})
					return
				}

				// A failure after the headers arrives as an error line with status 200.
				if response.Error != "" {
					send(models.StreamResponse{Err: &models.AIError{
						StatusCode: resp.StatusCode,
						Message:    fmt.Sprintf("stream failed: %s", response.Error),
					}})
					return
				}

				if len(response.Message.Content) > 0 {
					content := response.Message.Content
					markdownBuffer.WriteString(content)

					// Send chunk if it contains a newline, and then reset the buffer
					if strings.Contains(content, "\n") {
						if !send(models.StreamResponse{Content: markdownBuffer.String()}) {
							return
						}
						markdownBuffer.Reset()
					}
				}

				// Check if the response is marked as done
				if response.Done {
					if markdownBuffer.Len() > 0 {
						if !send(models.StreamResponse{Content: markdownBuffer.String()}) {
							return
						}
						markdownBuffer.Reset()
					}

					// Count total tokens usage
					if response.PromptEvalCount > 0 && ollamaProvider.TokenManagement != nil {
						ollamaProvider.TokenManagement.UsedTokens(response.PromptEvalCount, response.EvalCount)
					}

					send(models.StreamResponse{Done: true})
					return
				}
			}

			if readErr != nil {
				if readErr == io.EOF {
					break
				}
				send(models.StreamResponse{Err: fmt.Errorf("error reading stream: %w", readErr)})
				return
			}
		}

		// Send any remaining content in the buffer
		if markdownBuffer.Len() > 0 {
			if !send(models.StreamResponse{Content: markdownBuffer.String()}) {
				return
			}
		}
		send(models.StreamResponse{Done: true})
	}()

	return responseChan
}

// PullModel downloads model into the local Ollama server and blocks until it is installed.
func (ollamaProvider *OllamaConfig) PullModel(ctx context.Context, model string) error {
	jsonData, err := json.Marshal(ollama_models.OllamaPullRequest{Model: model, Stream: false})
	if err != nil {
		return fmt.Errorf("error marshalling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/pull", ollamaProvider.BaseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ollamaProvider.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to pull model %s: %w", model, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		message := strings.TrimSpace(string(body))
		var apiError ollama_models.OllamaErrorResponse
		if err := json.Unmarshal(body, &apiError); err == nil && apiError.Error != "" {
			message = apiError.Error
		}
		return &models.AIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("failed to install model %s: %s", model, message),
		}
	}

	var pull ollama_models.OllamaPullResponse
	if err := json.Unmarshal(body, &pull); err == nil && pull.Status != "" && pull.Status != "success" {
		return fmt.Errorf("failed to install model %s: %s", model, pull.Status)
	}

	ollamaProvider.Logger.Info().Str("model", model).Msg("model installed")
	return nil
}
