package llm

import "context"

// Provider defines the interface that all LLM providers must implement.
// It provides a unified abstraction for interacting with different LLM
// services (Anthropic Claude, OpenAI GPT, deterministic test doubles).
type Provider interface {
	// Name returns the provider name (e.g., "anthropic", "openai", "mock")
	Name() string

	// Complete sends a completion request and returns the full response.
	// This is a blocking call that waits for the entire response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Health checks connectivity to the provider with a minimal request.
	Health(ctx context.Context) error
}

// ProviderType identifies a supported provider implementation.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderMock      ProviderType = "mock"
)

// ProviderConfig contains configuration for a specific LLM provider.
type ProviderConfig struct {
	Type         ProviderType `mapstructure:"provider" yaml:"provider" validate:"required,oneof=anthropic openai mock"`
	APIKey       string       `mapstructure:"api_key" yaml:"api_key"`
	BaseURL      string       `mapstructure:"base_url" yaml:"base_url"`
	DefaultModel string       `mapstructure:"model" yaml:"model" validate:"required"`
	Temperature  float64      `mapstructure:"temperature" yaml:"temperature" validate:"min=0,max=1"`
	MaxTokens    int          `mapstructure:"max_tokens" yaml:"max_tokens" validate:"min=0"`
}
