package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOK        = "ok"
	OutcomeTransient = "transient"
	OutcomeRemote    = "remote_error"
	OutcomeAuth      = "auth_error"
	OutcomeHTTP      = "http_error"
	OutcomeCanceled  = "canceled"

	BatchOutcomeOK     = "ok"
	BatchOutcomeFailed = "failed"

	FallbackReasonUnavailable   = "model_unavailable"
	FallbackReasonBatchesFailed = "all_batches_failed"
	FallbackReasonNoMatches     = "no_reconciliations"
)

// ERPMetrics tracks remote call health and the reconciliation join path.
type ERPMetrics struct {
	calls           *prometheus.CounterVec
	callDuration    *prometheus.HistogramVec
	retries         *prometheus.CounterVec
	reconcileBatch  *prometheus.CounterVec
	reconcileFallbk *prometheus.CounterVec
}

var (
	erpMetricsOnce sync.Once
	erpMetrics     *ERPMetrics
)

// ERP returns the process-wide ERP metrics registered on the default registerer.
func ERP() *ERPMetrics {
	return ERPWithConfig(Config{})
}

func ERPWithConfig(cfg Config) *ERPMetrics {
	erpMetricsOnce.Do(func() {
		erpMetrics = newERPMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return erpMetrics
}

// NewERPMetricsForTest registers the ERP metrics on an isolated registry.
func NewERPMetricsForTest(registerer prometheus.Registerer) *ERPMetrics {
	return newERPMetrics(registerer, Config{ServiceName: "cuadra", Environment: "test"})
}

func newERPMetrics(registerer prometheus.Registerer, cfg Config) *ERPMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	constLabels := constLabels(cfg)

	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "cuadra_erp_calls_total",
		Help:        "ERP RPC calls by model, method and outcome.",
		ConstLabels: constLabels,
	}, []string{"model", "method", "outcome"})
	callDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "cuadra_erp_call_duration_seconds",
		Help:        "ERP RPC latency including retries.",
		Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		ConstLabels: constLabels,
	}, []string{"method"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "cuadra_erp_retries_total",
		Help:        "ERP RPC retries after transient transport errors.",
		ConstLabels: constLabels,
	}, []string{"method"})
	reconcileBatch := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "cuadra_reconcile_batches_total",
		Help:        "Partial reconciliation query batches by outcome.",
		ConstLabels: constLabels,
	}, []string{"outcome"})
	reconcileFallbk := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "cuadra_reconcile_fallback_total",
		Help:        "Switches to the payment direct-link join by reason.",
		ConstLabels: constLabels,
	}, []string{"reason"})

	registerer.MustRegister(calls, callDuration, retries, reconcileBatch, reconcileFallbk)

	return &ERPMetrics{
		calls:           calls,
		callDuration:    callDuration,
		retries:         retries,
		reconcileBatch:  reconcileBatch,
		reconcileFallbk: reconcileFallbk,
	}
}

func (m *ERPMetrics) ObserveCall(model, method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(normalizeLabel(model), normalizeLabel(method), normalizeLabel(outcome)).Inc()
	m.callDuration.WithLabelValues(normalizeLabel(method)).Observe(elapsed.Seconds())
}

func (m *ERPMetrics) IncRetry(method string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(normalizeLabel(method)).Inc()
}

func (m *ERPMetrics) AddReconcileBatches(ok, failed int) {
	if m == nil {
		return
	}
	if ok > 0 {
		m.reconcileBatch.WithLabelValues(BatchOutcomeOK).Add(float64(ok))
	}
	if failed > 0 {
		m.reconcileBatch.WithLabelValues(BatchOutcomeFailed).Add(float64(failed))
	}
}

func (m *ERPMetrics) IncFallback(reason string) {
	if m == nil {
		return
	}
	m.reconcileFallbk.WithLabelValues(normalizeLabel(reason)).Inc()
}

func constLabels(cfg Config) prometheus.Labels {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "cuadra"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	return prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}
}

func normalizeLabel(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}
