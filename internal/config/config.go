// Package config defines the service configuration surface and its YAML
// loader. Values support ${VAR_NAME} environment interpolation so secrets
// stay out of the config file.
package config

import (
	"fmt"
	"time"

	"github.com/alexandre-axioma/Axiom8/internal/llm"
	"github.com/alexandre-axioma/Axiom8/internal/observability"
)

// Config is the root configuration for the Axiom8 service.
type Config struct {
	Server       ServerConfig                `mapstructure:"server" yaml:"server"`
	LLM          LLMConfig                   `mapstructure:"llm" yaml:"llm" validate:"required"`
	Retrieval    RetrievalConfig             `mapstructure:"retrieval" yaml:"retrieval"`
	Conversation ConversationConfig          `mapstructure:"conversation" yaml:"conversation"`
	Session      SessionConfig               `mapstructure:"session" yaml:"session"`
	Logging      LoggingConfig               `mapstructure:"logging" yaml:"logging"`
	Tracing      observability.TracingConfig `mapstructure:"tracing" yaml:"tracing"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LLMConfig holds one provider configuration per reasoning stage. The two
// stages are configured independently so each can run on a different
// provider or model.
type LLMConfig struct {
	Requirements llm.ProviderConfig `mapstructure:"requirements" yaml:"requirements" validate:"required"`
	Generation   llm.ProviderConfig `mapstructure:"generation" yaml:"generation" validate:"required"`
}

// RetrievalConfig maps documentation backend names to their endpoints.
type RetrievalConfig struct {
	Backends   map[string]BackendConfig `mapstructure:"backends" yaml:"backends" validate:"dive"`
	MaxResults int                      `mapstructure:"max_results" yaml:"max_results" validate:"min=0,max=50"`
	Timeout    time.Duration            `mapstructure:"timeout" yaml:"timeout"`
}

// BackendConfig is a single retrieval backend endpoint.
type BackendConfig struct {
	URL string `mapstructure:"url" yaml:"url" validate:"required,url"`
}

// ConversationConfig tunes the per-turn state machine.
type ConversationConfig struct {
	// ForceCompleteAfter is the user-turn count at which the requirements
	// stage is overridden into completion.
	ForceCompleteAfter int `mapstructure:"force_complete_after" yaml:"force_complete_after" validate:"min=1"`
}

// SessionConfig selects and tunes the session store backend.
type SessionConfig struct {
	Backend      string        `mapstructure:"backend" yaml:"backend" validate:"oneof=memory redis"`
	TTL          time.Duration `mapstructure:"ttl" yaml:"ttl"`
	ReapInterval time.Duration `mapstructure:"reap_interval" yaml:"reap_interval"`
	Redis        RedisConfig   `mapstructure:"redis" yaml:"redis,omitempty"`
}

// RedisConfig contains connection settings for the redis session backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	DB       int    `mapstructure:"db" yaml:"db"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=json text"`
}

// Addr returns the host:port the HTTP server binds to.
func (c ServerConfig) Addr() string {
	host := c.Host
	if host == "" {
		host = "0.0.0.0"
	}
	return fmt.Sprintf("%s:%d", host, c.Port)
}
