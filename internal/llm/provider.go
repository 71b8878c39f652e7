package llm

import "context"

// Provider is a hosted chat model capable of tool calling
type Provider interface {
	// SendMessage sends a chat completion request and returns the response
	SendMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error)

	// Name returns the provider name
	Name() string
}
