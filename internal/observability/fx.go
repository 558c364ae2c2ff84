// Package observability wires logging, tracing and metrics from the
// application config.
package observability

import (
	"github.com/smallbiznis/siino/internal/config"
	"github.com/smallbiznis/siino/internal/observability/logger"
	"github.com/smallbiznis/siino/internal/observability/metrics"
	"github.com/smallbiznis/siino/pkg/telemetry"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		loggerConfig,
		logger.New,
		tracingConfig,
		telemetry.NewTracerProvider,
		metricsConfig,
		metrics.NewProvider,
		metrics.New,
	),
)

func serviceName(cfg config.Config) string {
	if cfg.AppName == "" {
		return "siino"
	}
	return cfg.AppName
}

func loggerConfig(cfg config.Config) logger.Config {
	debug := cfg.Debug()
	return logger.Config{
		ServiceName:         serviceName(cfg),
		Environment:         cfg.Environment,
		Version:             cfg.AppVersion,
		Level:               cfg.Log.Level,
		Format:              cfg.Log.Format,
		Output:              cfg.Log.Output,
		Debug:               debug,
		IncludeCaller:       debug,
		IncludeStackOnError: debug,
	}
}

func tracingConfig(cfg config.Config) telemetry.Config {
	return telemetry.Config{
		Enabled:          cfg.Telemetry.Enabled,
		ServiceName:      serviceName(cfg),
		ServiceVersion:   cfg.AppVersion,
		Environment:      cfg.Environment,
		ExporterEndpoint: cfg.Telemetry.Endpoint,
		SamplingRatio:    cfg.Telemetry.SamplingRatio,
	}
}

func metricsConfig(cfg config.Config) metrics.Config {
	return metrics.Config{
		Enabled:          cfg.Telemetry.Enabled,
		ExporterEndpoint: cfg.Telemetry.Endpoint,
		ExporterProtocol: cfg.Telemetry.Protocol,
		ServiceName:      serviceName(cfg),
		Environment:      cfg.Environment,
	}
}
