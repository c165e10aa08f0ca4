package models

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Options struct {
	Temperature *float32 `json:"temperature,omitempty"`
}

// OllamaChatCompletionRequest is the body of POST /api/chat.
type OllamaChatCompletionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
	Options  *Options  `json:"options,omitempty"`
}

// OllamaChatCompletionResponse is one NDJSON chunk of a streamed chat.
type OllamaChatCompletionResponse struct {
	Model           string  `json:"model"`
	Message         Message `json:"message"`
	Done            bool    `json:"done"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
	Error           string  `json:"error,omitempty"`
}

// OllamaTagsResponse is the body of GET /api/tags.
type OllamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// OllamaErrorResponse is returned with non-200 status codes.
type OllamaErrorResponse struct {
	Error string `json:"error"`
}

// OllamaPullRequest is the body of POST /api/pull.
type OllamaPullRequest struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

// OllamaPullResponse is the final status of a non-streamed pull.
type OllamaPullResponse struct {
	Status string `json:"status"`
}
