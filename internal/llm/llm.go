// Package llm abstracts the chat-completion backends carl can use for
// natural-language understanding and free-form analysis. The assistant
// works without one; everything here degrades to the keyword fallback.
package llm

import "context"

// Role tags a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged message in a chat request.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest is one chat-completion call.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	// JSONMode asks the backend to constrain output to a JSON object.
	JSONMode bool
}

// CompletionResponse is the assistant's reply.
type CompletionResponse struct {
	Content string
	Model   string
}

// Provider is a chat-completion backend.
type Provider interface {
	// Complete sends one request and returns the assistant reply. A single
	// attempt: callers never retry, they fall back.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name identifies the backend for logging.
	Name() string
}
