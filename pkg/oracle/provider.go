package oracle

import (
	"context"
	"fmt"
)

// Provider is a chat-completion backend used by the oracle client
type Provider interface {
	// Complete sends one prompt and returns the model's text response
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Name returns the provider name
	Name() string
}

// CompletionRequest contains the parameters for a single completion call
type CompletionRequest struct {
	Model       string
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// NewProvider creates a provider for the named backend
func NewProvider(name, apiKey string) (Provider, error) {
	switch name {
	case "openai":
		return NewOpenAIProvider(apiKey), nil
	case "anthropic":
		return NewAnthropicProvider(apiKey), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
}
