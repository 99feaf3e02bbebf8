// Package llm provides access to an OpenAI-compatible chat completion API
// for answer generation and sentiment classification.
package llm

import "context"

// Role values for chat messages.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client generates chat completions.
type Client interface {
	// Complete sends messages and returns the assistant's reply.
	Complete(ctx context.Context, messages []Message) (string, error)
	// Configured reports whether the client has credentials to make calls.
	Configured() bool
	Close() error
}
