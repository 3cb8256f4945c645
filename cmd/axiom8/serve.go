package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/alexandre-axioma/Axiom8/internal/api"
	"github.com/alexandre-axioma/Axiom8/internal/config"
	"github.com/alexandre-axioma/Axiom8/internal/conversation"
	"github.com/alexandre-axioma/Axiom8/internal/llm"
	"github.com/alexandre-axioma/Axiom8/internal/llm/providers"
	"github.com/alexandre-axioma/Axiom8/internal/observability"
	"github.com/alexandre-axioma/Axiom8/internal/retrieval"
	"github.com/alexandre-axioma/Axiom8/internal/session"
	"github.com/alexandre-axioma/Axiom8/internal/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Axiom8 HTTP service",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.NewConfigLoader(config.NewConfigValidator()).LoadWithDefaults(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	tracerProvider, err := observability.InitTracing(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := observability.ShutdownTracing(shutdownCtx, tracerProvider); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	requirements, err := newStage(cfg.LLM.Requirements, conversation.RequirementsSystemPrompt)
	if err != nil {
		return err
	}
	generation, err := newStage(cfg.LLM.Generation, conversation.GenerationSystemPrompt)
	if err != nil {
		return err
	}

	gateway := newGateway(cfg.Retrieval)

	store, err := newSessionStore(cfg.Session)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.Session.Backend == "memory" && cfg.Session.ReapInterval > 0 {
		session.StartReaper(ctx, store, cfg.Session.ReapInterval)
	}

	orchestrator := conversation.NewOrchestrator(requirements, generation, gateway,
		conversation.WithForceCompleteAfter(cfg.Conversation.ForceCompleteAfter),
		conversation.WithMaxToolResults(cfg.Retrieval.MaxResults),
		conversation.WithLogger(observability.NewTracedLogger(logger.Handler(), "conversation")),
		conversation.WithTracer(otel.Tracer("axiom8/conversation")),
	)

	server := api.NewServer(orchestrator, store,
		api.WithLogger(logger.With("component", "api")),
		api.WithHealthChecks(
			api.HealthCheck{Name: "llm.requirements", Check: requirements.Provider().Health},
			api.HealthCheck{Name: "llm.generation", Check: generation.Provider().Health},
		),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.Server.Addr(), cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
	}()

	logger.Info("axiom8 started",
		"addr", cfg.Server.Addr(),
		"session_backend", cfg.Session.Backend,
		"retrieval_backends", len(cfg.Retrieval.Backends),
	)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	level := observability.ParseLevel(cfg.Level)
	if cfg.Format == "text" {
		return slog.New(observability.NewTextHandler(os.Stderr, level))
	}
	return slog.New(observability.NewJSONHandler(os.Stderr, level))
}

func newStage(cfg llm.ProviderConfig, systemPrompt string) (*llm.StageAdapter, error) {
	provider, err := providers.NewProvider(cfg)
	if err != nil {
		return nil, err
	}

	return llm.NewStageAdapter(provider, systemPrompt,
		llm.WithModel(cfg.DefaultModel),
		llm.WithTemperature(cfg.Temperature),
		llm.WithMaxTokens(cfg.MaxTokens),
	), nil
}

func newGateway(cfg config.RetrievalConfig) *retrieval.Gateway {
	backends := make(map[string]retrieval.BackendConfig, len(cfg.Backends))
	for name, b := range cfg.Backends {
		backends[name] = retrieval.BackendConfig{URL: b.URL}
	}

	opts := []retrieval.GatewayOption{}
	if cfg.Timeout > 0 {
		opts = append(opts, retrieval.WithTimeout(cfg.Timeout))
	}

	return retrieval.NewGateway(backends, opts...)
}

func newSessionStore(cfg config.SessionConfig) (session.Store, error) {
	switch cfg.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return session.NewRedisStore(client, cfg.TTL), nil
	case "memory", "":
		return session.NewInMemoryStore(session.WithTTL(cfg.TTL)), nil
	default:
		return nil, types.NewError(types.CONFIG_VALIDATION_FAILED, "unknown session backend: "+cfg.Backend)
	}
}
