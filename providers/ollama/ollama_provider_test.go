package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/meysamhadeli/patchpilot/providers/contracts"
	"github.com/meysamhadeli/patchpilot/providers/models"
	ollama_models "github.com/meysamhadeli/patchpilot/providers/ollama/models"
	"github.com/meysamhadeli/patchpilot/token_management"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, stream <-chan models.StreamResponse) (string, error, bool) {
	t.Helper()
	var builder strings.Builder
	done := false
	for response := range stream {
		if response.Err != nil {
			return builder.String(), response.Err, done
		}
		if response.Done {
			done = true
			continue
		}
		builder.WriteString(response.Content)
	}
	return builder.String(), nil, done
}

func TestOllamaProvider_StreamsChat(t *testing.T) {
	var received ollama_models.OllamaChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		chunks := []string{
			`{"message":{"role":"assistant","content":"Hello"},"done":false}`,
			`{"message":{"role":"assistant","content":" world\n"},"done":false}`,
			`{"message":{"role":"assistant","content":"bye"},"done":false}`,
			`{"message":{"role":"assistant","content":""},"done":true,"prompt_eval_count":12,"eval_count":7}`,
		}
		for _, chunk := range chunks {
			fmt.Fprintln(w, chunk)
		}
	}))
	defer server.Close()

	tokens := token_management.NewTokenManager()
	provider := NewOllamaChatProvider(&OllamaConfig{
		BaseURL:         server.URL + "/api",
		ChatModel:       "codellama:7b-instruct",
		TokenManagement: tokens,
		Logger:          zerolog.Nop(),
	})

	content, err, done := drain(t, provider.ChatCompletionRequest(context.Background(), models.ChatRequest{
		SystemPrompt: "system",
		History:      []models.Message{{Role: "user", Content: "earlier"}},
		UserInput:    "hi",
	}))

	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, "Hello world\nbye", content)

	require.Len(t, received.Messages, 3)
	assert.Equal(t, "system", received.Messages[0].Role)
	assert.Equal(t, "earlier", received.Messages[1].Content)
	assert.Equal(t, "hi", received.Messages[2].Content)
	assert.True(t, received.Stream)
	assert.Equal(t, "codellama:7b-instruct", received.Model)

	total, input, output := tokens.GetCurrentTokenUsage()
	assert.Equal(t, 19, total)
	assert.Equal(t, 12, input)
	assert.Equal(t, 7, output)
}

func TestOllamaProvider_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"model 'missing' not found"}`)
	}))
	defer server.Close()

	provider := NewOllamaChatProvider(&OllamaConfig{BaseURL: server.URL + "/api", ChatModel: "missing"})

	_, err, _ := drain(t, provider.ChatCompletionRequest(context.Background(), models.ChatRequest{UserInput: "hi"}))

	require.Error(t, err)
	var aiError *models.AIError
	require.ErrorAs(t, err, &aiError)
	assert.Equal(t, http.StatusNotFound, aiError.StatusCode)
	assert.Contains(t, aiError.Error(), "model 'missing' not found")
}

func TestOllamaProvider_ErrorLineInStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"Par"},"done":false}`)
		fmt.Fprintln(w, `{"error":"model runner has unexpectedly stopped"}`)
	}))
	defer server.Close()

	provider := NewOllamaChatProvider(&OllamaConfig{BaseURL: server.URL + "/api", ChatModel: "m"})

	content, err, done := drain(t, provider.ChatCompletionRequest(context.Background(), models.ChatRequest{UserInput: "hi"}))

	require.Error(t, err)
	assert.False(t, done)
	assert.Empty(t, content)
	var aiError *models.AIError
	require.ErrorAs(t, err, &aiError)
	assert.Equal(t, http.StatusOK, aiError.StatusCode)
	assert.Contains(t, aiError.Error(), "model runner has unexpectedly stopped")
}

func TestOllamaProvider_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	provider := NewOllamaChatProvider(&OllamaConfig{BaseURL: url + "/api", ChatModel: "m"})

	_, err, _ := drain(t, provider.ChatCompletionRequest(context.Background(), models.ChatRequest{UserInput: "hi"}))
	assert.Error(t, err)

	status := provider.CheckStatus(context.Background())
	assert.False(t, status.Available)
	assert.Empty(t, status.Models)
	assert.NotEmpty(t, status.Error)
}

func TestOllamaProvider_CheckStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		fmt.Fprint(w, `{"models":[{"name":"llama3:8b"},{"name":"codellama:7b-instruct"}]}`)
	}))
	defer server.Close()

	provider := NewOllamaChatProvider(&OllamaConfig{BaseURL: server.URL + "/api/", ChatModel: "m"})
	status := provider.CheckStatus(context.Background())

	assert.True(t, status.Available)
	assert.Equal(t, []string{"llama3:8b", "codellama:7b-instruct"}, status.Models)
	assert.True(t, status.HasCodeModel())
	assert.Equal(t, "ollama", provider.Name())
	assert.Equal(t, "m", provider.Model())
}

func TestOllamaProvider_PullModel(t *testing.T) {
	var received ollama_models.OllamaPullRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/pull", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		fmt.Fprint(w, `{"status":"success"}`)
	}))
	defer server.Close()

	provider := NewOllamaChatProvider(&OllamaConfig{BaseURL: server.URL + "/api", Logger: zerolog.Nop()})
	installer, ok := provider.(contracts.IModelInstaller)
	require.True(t, ok)

	require.NoError(t, installer.PullModel(context.Background(), "codellama:7b-instruct"))
	assert.Equal(t, "codellama:7b-instruct", received.Model)
	assert.False(t, received.Stream)
}

func TestOllamaProvider_PullModelFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"pull model manifest: file does not exist"}`)
	}))
	defer server.Close()

	provider := NewOllamaChatProvider(&OllamaConfig{BaseURL: server.URL + "/api"})

	err := provider.(contracts.IModelInstaller).PullModel(context.Background(), "nope")

	var aiError *models.AIError
	require.ErrorAs(t, err, &aiError)
	assert.Equal(t, http.StatusInternalServerError, aiError.StatusCode)
	assert.Contains(t, aiError.Error(), "failed to install model nope")
	assert.Contains(t, aiError.Error(), "file does not exist")
}
