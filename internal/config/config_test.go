package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandre-axioma/Axiom8/internal/llm"
	"github.com/alexandre-axioma/Axiom8/internal/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, NewConfigValidator().Validate(cfg))

	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 4, cfg.Conversation.ForceCompleteAfter)
	assert.Equal(t, llm.ProviderMock, cfg.LLM.Requirements.Type)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 9000
llm:
  requirements:
    provider: anthropic
    model: claude-sonnet-4-20250514
    temperature: 0.3
  generation:
    provider: openai
    model: gpt-4o
    max_tokens: 4096
retrieval:
  max_results: 3
  backends:
    core-concepts:
      url: http://localhost:8001/webhook/core
    examples:
      url: http://localhost:8001/webhook/examples
conversation:
  force_complete_after: 6
session:
  backend: redis
  ttl: 12h
  redis:
    addr: localhost:6380
logging:
  level: debug
  format: text
`)

	cfg, err := NewConfigLoader(NewConfigValidator()).Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr())
	assert.Equal(t, llm.ProviderAnthropic, cfg.LLM.Requirements.Type)
	assert.Equal(t, "gpt-4o", cfg.LLM.Generation.DefaultModel)
	assert.Equal(t, 3, cfg.Retrieval.MaxResults)
	assert.Len(t, cfg.Retrieval.Backends, 2)
	assert.Equal(t, "http://localhost:8001/webhook/core", cfg.Retrieval.Backends["core-concepts"].URL)
	assert.Equal(t, 6, cfg.Conversation.ForceCompleteAfter)
	assert.Equal(t, "redis", cfg.Session.Backend)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "localhost:6380", cfg.Session.Redis.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadInterpolatesEnvVars(t *testing.T) {
	t.Setenv("AXIOM8_TEST_API_KEY", "sk-test-12345")

	path := writeConfig(t, `
llm:
  requirements:
    provider: openai
    model: gpt-4o-mini
    api_key: ${AXIOM8_TEST_API_KEY}
  generation:
    provider: mock
    model: mock-generation
`)

	cfg, err := NewConfigLoader(NewConfigValidator()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-test-12345", cfg.LLM.Requirements.APIKey)
}

func TestLoadRejectsUnsetEnvVar(t *testing.T) {
	// A credential whose environment variable is missing must fail startup,
	// naming the field and the variable, instead of flowing into a provider
	// as a literal placeholder.
	path := writeConfig(t, `
llm:
  requirements:
    provider: mock
    model: m
    api_key: ${AXIOM8_DEFINITELY_UNSET_VAR}
  generation:
    provider: mock
    model: m
`)

	_, err := NewConfigLoader(NewConfigValidator()).Load(path)
	require.Error(t, err)
	assert.Equal(t, types.CONFIG_VALIDATION_FAILED, types.CodeOf(err))
	assert.Contains(t, err.Error(), "llm.requirements.api_key")
	assert.Contains(t, err.Error(), "${AXIOM8_DEFINITELY_UNSET_VAR}")
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	path := writeConfig(t, `
llm:
  requirements:
    provider: gemini
    model: m
  generation:
    provider: mock
    model: m
`)

	_, err := NewConfigLoader(NewConfigValidator()).Load(path)
	require.Error(t, err)
	assert.Equal(t, types.CONFIG_VALIDATION_FAILED, types.CodeOf(err))
}

func TestLoadRejectsRedisWithoutAddr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Session.Backend = "redis"
	cfg.Session.Redis.Addr = ""

	err := NewConfigValidator().Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.redis.addr")
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := NewConfigLoader(NewConfigValidator()).Load("/nonexistent/config.yaml")
	require.Error(t, err)
	assert.Equal(t, types.CONFIG_LOAD_FAILED, types.CodeOf(err))
}

func TestLoadWithDefaultsMissingFile(t *testing.T) {
	cfg, err := NewConfigLoader(NewConfigValidator()).LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server.Port, cfg.Server.Port)
}
