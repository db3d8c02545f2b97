package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes report-level instruments exported over OTLP.
type Metrics struct {
	reportRuns     metric.Int64Counter
	reportDuration metric.Float64Histogram
	cacheLookups   metric.Int64Counter
	loginAttempts  metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the report instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "cuadra"
	}
	meter := provider.Meter(name)

	reportRuns, err := meter.Int64Counter("cuadra_report_runs_total")
	if err != nil {
		return nil, err
	}
	reportDuration, err := meter.Float64Histogram("cuadra_report_duration_seconds", metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	cacheLookups, err := meter.Int64Counter("cuadra_report_cache_lookups_total")
	if err != nil {
		return nil, err
	}
	loginAttempts, err := meter.Int64Counter("cuadra_portal_logins_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		reportRuns:     reportRuns,
		reportDuration: reportDuration,
		cacheLookups:   cacheLookups,
		loginAttempts:  loginAttempts,
	}, nil
}

// RecordReportRun counts a computed report by page and outcome.
func (m *Metrics) RecordReportRun(ctx context.Context, page, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("page", strings.TrimSpace(page)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.reportRuns.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.reportDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
}

// RecordCacheLookup counts session cache lookups; state is ready, stale or idle.
func (m *Metrics) RecordCacheLookup(ctx context.Context, page, state string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("page", strings.TrimSpace(page)),
		attribute.String("state", strings.TrimSpace(state)),
	)
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordLogin(ctx context.Context, ok bool) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if ok {
		outcome = "accepted"
	}
	m.loginAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"page":        {},
	"outcome":     {},
	"state":       {},
	"status_code": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
