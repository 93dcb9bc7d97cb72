package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry           *prometheus.Registry
	reconcileRuns      *prometheus.CounterVec // total reconciliation runs
	reconcileDuration  prometheus.Histogram   // time to reconcile
	apiRequests        *prometheus.CounterVec // remote API requests
	validationFailures *prometheus.CounterVec // rejected parameter sets
	journalRequests    *prometheus.CounterVec // journal store requests
}

// Public interface for metrics operations
func (m *Metrics) IncReconcileRun(success bool) {
	status := boolToResult(success)
	m.reconcileRuns.WithLabelValues(status).Inc()
}

func (m *Metrics) SetReconcileDuration(duration time.Duration) {
	m.reconcileDuration.Observe(duration.Seconds())
}

// IncAPIRequest records one outward API request. Transport failures that
// never produced a response report code 0.
func (m *Metrics) IncAPIRequest(method string, code int) {
	if method == "" {
		return
	}
	scode := strconv.Itoa(code)
	m.apiRequests.WithLabelValues(method, scode).Inc()
}

func (m *Metrics) IncValidationFailure(field string) {
	if field == "" {
		return
	}
	m.validationFailures.WithLabelValues(field).Inc()
}

func (m *Metrics) IncJournalRequest(operation string, success bool) {
	if !isValidOperation(operation) {
		return
	}
	status := boolToResult(success)
	m.journalRequests.WithLabelValues(operation, status).Inc()
}

// Validation helpers
func boolToResult(b bool) string {
	if b {
		return "success"
	}
	return "failure"
}

func isValidOperation(op string) bool {
	switch op {
	case "create", "read", "update", "delete":
		return true
	}
	return false
}

func New(register bool) *Metrics {
	registry := prometheus.NewRegistry()
	namespace := "icinga_reconcile"

	m := &Metrics{
		registry: registry,

		reconcileRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of reconciliation runs",
		}, []string{"status"}),

		reconcileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of reconciliation runs in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total remote API requests",
		}, []string{"method", "code"}),

		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Total parameter sets rejected by validation",
		}, []string{"field"}),

		journalRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_requests_total",
			Help:      "Total journal store requests",
		}, []string{"operation", "status"}),
	}

	if register {
		registry.MustRegister(
			m.reconcileRuns,
			m.reconcileDuration,
			m.apiRequests,
			m.validationFailures,
			m.journalRequests,
		)
	}
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
