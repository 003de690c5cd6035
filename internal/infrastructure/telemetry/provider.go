// Package telemetry wires OpenTelemetry traces, metrics and logs plus Pyroscope
// profiling for the POS backend.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// Config holds the export settings shared by the three OTLP signals.
type Config struct {
	ServiceName       string
	ServiceVersion    string
	CollectorEndpoint string
	Insecure          bool

	TracesEnabled   bool
	SamplingRatio   float64
	MetricsEnabled  bool
	MetricsInterval time.Duration // Default: 60s
	LogsEnabled     bool
	LogsMinLevel    string // lowest zap level bridged to OTLP, default "info"
}

const shutdownTimeout = 10 * time.Second

func newResource(cfg Config) (*resource.Resource, error) {
	version := cfg.ServiceVersion
	if version == "" {
		version = "dev"
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// shutdown runs fn with a bounded context and logs the outcome for the named signal.
func shutdown(ctx context.Context, logger *zap.Logger, signal string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		logger.Error("Failed to shutdown "+signal+" provider", zap.Error(err))
		return err
	}
	logger.Info(signal + " provider shutdown complete")
	return nil
}
