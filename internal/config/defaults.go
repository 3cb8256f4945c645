package config

import (
	"time"

	"github.com/alexandre-axioma/Axiom8/internal/llm"
	"github.com/alexandre-axioma/Axiom8/internal/observability"
)

// DefaultConfig returns a configuration that runs the service end to end
// with no config file: mock providers, in-memory sessions, no retrieval
// backends, tracing off.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		LLM: LLMConfig{
			Requirements: llm.ProviderConfig{
				Type:         llm.ProviderMock,
				DefaultModel: "mock-requirements",
				Temperature:  0.3,
				MaxTokens:    1024,
			},
			Generation: llm.ProviderConfig{
				Type:         llm.ProviderMock,
				DefaultModel: "mock-generation",
				Temperature:  0.2,
				MaxTokens:    4096,
			},
		},
		Retrieval: RetrievalConfig{
			Backends:   map[string]BackendConfig{},
			MaxResults: 5,
			Timeout:    30 * time.Second,
		},
		Conversation: ConversationConfig{
			ForceCompleteAfter: 4,
		},
		Session: SessionConfig{
			Backend:      "memory",
			TTL:          24 * time.Hour,
			ReapInterval: time.Hour,
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: observability.TracingConfig{
			Enabled:     false,
			Provider:    "noop",
			ServiceName: "axiom8",
			SampleRate:  1.0,
		},
	}
}
