package interfaces

import (
	"context"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// ContentRequest is a provider-agnostic content generation request
type ContentRequest struct {
	Messages          []Message
	Model             string // Optional; empty uses the default provider's model
	Temperature       float32
	MaxTokens         int
	SystemInstruction string
}

// ContentResponse is a provider-agnostic content generation response
type ContentResponse struct {
	Text     string
	Provider string
	Model    string
}

// LLMService generates text from a system instruction and a conversation.
// Implementations route to a cloud provider (Gemini or Claude).
type LLMService interface {
	// GenerateContent runs a single completion.
	// An empty completion is returned as an error.
	GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error)

	// Close releases provider clients.
	Close() error
}
