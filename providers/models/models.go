package models

import "strings"

// StreamResponse represents the response structure for streaming.
type StreamResponse struct {
	Content string // Contains the content of the response
	Done    bool   // Signals when the response is complete
	Err     error  // Error, if any, during streaming
}

// BackendStatus is the result of probing the inference backend.
type BackendStatus struct {
	Available bool     `json:"available"`
	Models    []string `json:"models"`
	Error     string   `json:"error,omitempty"`
}

// HasCodeModel reports whether any installed model is a code model.
func (s BackendStatus) HasCodeModel() bool {
	for _, model := range s.Models {
		if strings.Contains(model, "code") {
			return true
		}
	}
	return false
}

// CodeAnalysis is the answer to a single-file analysis request.
type CodeAnalysis struct {
	Response string `json:"response"`
	Language string `json:"language"`
	Lines    int    `json:"lines"`
	Size     int    `json:"size,omitempty"`
	// BasicMode is set when the answer was produced without the backend.
	BasicMode bool `json:"basicMode,omitempty"`
}

// Message is one turn sent to a chat backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a chat completion request handed to a provider.
type ChatRequest struct {
	SystemPrompt string
	History      []Message
	UserInput    string
}

// AIError wraps a failure reported by the backend.
type AIError struct {
	StatusCode int
	Message    string
}

func (e *AIError) Error() string {
	return e.Message
}
