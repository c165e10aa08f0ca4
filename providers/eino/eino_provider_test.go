package eino

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/meysamhadeli/patchpilot/providers/models"
	"github.com/meysamhadeli/patchpilot/token_management"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatModel struct {
	chunks    []*schema.Message
	streamErr error
	received  []*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.received = input
	return schema.AssistantMessage("generated", nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.received = input
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return schema.StreamReaderFromArray(f.chunks), nil
}

func collect(stream <-chan models.StreamResponse) (string, bool, error) {
	content := ""
	done := false
	for response := range stream {
		if response.Err != nil {
			return content, done, response.Err
		}
		if response.Done {
			done = true
			continue
		}
		content += response.Content
	}
	return content, done, nil
}

func TestEinoProvider_Streams(t *testing.T) {
	last := schema.AssistantMessage("!", nil)
	last.ResponseMeta = &schema.ResponseMeta{Usage: &schema.TokenUsage{PromptTokens: 10, CompletionTokens: 4, TotalTokens: 14}}
	fake := &fakeChatModel{chunks: []*schema.Message{
		schema.AssistantMessage("Hello", nil),
		schema.AssistantMessage(" there", nil),
		last,
	}}
	tokens := token_management.NewTokenManager()

	provider := NewEinoChatProvider(&EinoConfig{
		ProviderName:    "openai",
		ChatModel:       "gpt-4o-mini",
		Client:          fake,
		TokenManagement: tokens,
		Logger:          zerolog.Nop(),
	})

	content, done, err := collect(provider.ChatCompletionRequest(context.Background(), models.ChatRequest{
		SystemPrompt: "sys",
		History: []models.Message{
			{Role: "user", Content: "q1"},
			{Role: "assistant", Content: "a1"},
		},
		UserInput: "q2",
	}))

	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, "Hello there!", content)

	require.Len(t, fake.received, 4)
	assert.Equal(t, schema.System, fake.received[0].Role)
	assert.Equal(t, schema.User, fake.received[1].Role)
	assert.Equal(t, schema.Assistant, fake.received[2].Role)
	assert.Equal(t, "q2", fake.received[3].Content)

	total, _, _ := tokens.GetCurrentTokenUsage()
	assert.Equal(t, 14, total)
}

func TestEinoProvider_StreamError(t *testing.T) {
	provider := NewEinoChatProvider(&EinoConfig{
		ProviderName: "openai",
		ChatModel:    "gpt-4o",
		Client:       &fakeChatModel{streamErr: errors.New("unauthorized")},
	})

	_, _, err := collect(provider.ChatCompletionRequest(context.Background(), models.ChatRequest{UserInput: "hi"}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")
}

func TestEinoProvider_Status(t *testing.T) {
	configured := NewEinoChatProvider(&EinoConfig{ProviderName: "openai", ChatModel: "gpt-4o", Client: &fakeChatModel{}})
	status := configured.CheckStatus(context.Background())
	assert.True(t, status.Available)
	assert.Equal(t, []string{"gpt-4o"}, status.Models)

	missing := NewEinoChatProvider(&EinoConfig{ProviderName: "openai", ChatModel: "gpt-4o"})
	status = missing.CheckStatus(context.Background())
	assert.False(t, status.Available)
	assert.NotEmpty(t, status.Error)

	_, _, err := collect(missing.ChatCompletionRequest(context.Background(), models.ChatRequest{UserInput: "hi"}))
	assert.Error(t, err)
}
