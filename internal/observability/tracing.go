package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc/credentials"

	"github.com/alexandre-axioma/Axiom8/internal/types"
)

const (
	defaultBatchTimeout = 5 * time.Second
	defaultServiceName  = "axiom8"
)

// TracingConfig contains distributed tracing configuration. When disabled,
// the service runs with a no-op tracer provider that records nothing.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled" yaml:"enabled"`
	Provider    string  `mapstructure:"provider" yaml:"provider"`
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint"`
	ServiceName string  `mapstructure:"service_name" yaml:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure" yaml:"insecure"`
	TLSCertFile string  `mapstructure:"tls_cert_file" yaml:"tls_cert_file"`
}

// Validate checks the tracing configuration.
func (c TracingConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if strings.ToLower(c.Provider) == "otlp" && c.Endpoint == "" {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "tracing.endpoint is required for the otlp provider")
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("tracing.sample_rate must be between 0 and 1, got %f", c.SampleRate))
	}
	return nil
}

// InitTracing initializes distributed tracing. Supported providers: "otlp"
// and "noop". When cfg.Enabled is false, returns a no-op tracer provider
// that records nothing.
func InitTracing(ctx context.Context, cfg TracingConfig) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled {
		return sdktrace.NewTracerProvider(), nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	res, err := resource.New(
		ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to create tracing resource", err)
	}

	var exporter sdktrace.SpanExporter

	switch strings.ToLower(cfg.Provider) {
	case "otlp":
		otlpOpts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
		}

		switch {
		case cfg.TLSCertFile != "":
			creds, err := credentials.NewClientTLSFromFile(cfg.TLSCertFile, "")
			if err != nil {
				return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to load TLS credentials", err)
			}
			otlpOpts = append(otlpOpts, otlptracegrpc.WithTLSCredentials(creds))
		case cfg.Insecure:
			otlpOpts = append(otlpOpts, otlptracegrpc.WithInsecure())
		default:
			otlpOpts = append(otlpOpts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(nil)))
		}

		exporter, err = otlptracegrpc.New(ctx, otlpOpts...)
		if err != nil {
			return nil, types.WrapError(types.CONFIG_LOAD_FAILED,
				fmt.Sprintf("failed to connect otlp exporter at %s", cfg.Endpoint), err)
		}

	case "noop", "":
		return sdktrace.NewTracerProvider(), nil

	default:
		return nil, types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("unsupported tracing provider: %s", cfg.Provider))
	}

	sampleRate := cfg.SampleRate
	if sampleRate == 0 {
		sampleRate = 1.0
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(defaultBatchTimeout)),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(sampleRate)),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)

	return tp, nil
}

// ShutdownTracing flushes pending spans and shuts down the provider. Call it
// before process exit.
func ShutdownTracing(ctx context.Context, provider *sdktrace.TracerProvider) error {
	if provider == nil {
		return nil
	}
	return provider.Shutdown(ctx)
}
