package observability

import (
	"github.com/smallbiznis/cuadra/internal/observability/logger"
	"github.com/smallbiznis/cuadra/internal/observability/metrics"
	"github.com/smallbiznis/cuadra/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

// Module wires logging, tracing, OTLP report metrics and the prometheus
// ERP and HTTP collectors for the dashboard server.
var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		provideLoggerConfig,
		logger.New,
		provideTracingConfig,
		tracing.NewProvider,
		provideMetricsConfig,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
		provideERPMetrics,
	),
	fx.Invoke(ensureTracingProvider),
)

// CLIModule gives the command line tool ERP metrics without exporters. The
// logger is supplied by the caller.
var CLIModule = fx.Module("observability.cli",
	fx.Provide(
		CLIConfig,
		provideMetricsConfig,
		provideERPMetrics,
	),
)

func ensureTracingProvider(_ *sdktrace.TracerProvider) {}

func provideLoggerConfig(cfg Config) logger.Config {
	return logger.Config{
		ServiceName:         cfg.ServiceName,
		Environment:         cfg.Environment,
		Version:             cfg.Version,
		Level:               cfg.LogLevel,
		Format:              cfg.LogFormat,
		Debug:               cfg.Debug(),
		IncludeCaller:       true,
		IncludeStackOnError: cfg.Debug(),
	}
}

func provideTracingConfig(cfg Config) tracing.Config {
	return tracing.Config{
		Enabled:          cfg.OtelEnabled,
		ServiceName:      cfg.ServiceName,
		ServiceVersion:   cfg.Version,
		Environment:      cfg.Environment,
		ExporterEndpoint: cfg.OtelExporterEndpoint,
		ExporterProtocol: cfg.OtelExporterProtocol,
		SamplingRatio:    cfg.OtelSamplingRatio,
	}
}

func provideMetricsConfig(cfg Config) metrics.Config {
	return metrics.Config{
		Enabled:          cfg.OtelEnabled,
		ExporterEndpoint: cfg.OtelExporterEndpoint,
		ExporterProtocol: cfg.OtelExporterProtocol,
		ServiceName:      cfg.ServiceName,
		Environment:      cfg.Environment,
	}
}

// provideERPMetrics registers the ERP collectors once per process.
func provideERPMetrics(cfg metrics.Config) *metrics.ERPMetrics {
	return metrics.ERPWithConfig(cfg)
}
