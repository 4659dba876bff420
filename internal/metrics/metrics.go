// Package metrics exposes Prometheus collectors for patch application.
//
// Each Metrics owns its own registry so several stores (or tests) can run
// in one process without duplicate-registration panics.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/coedit/internal/engine"
	"github.com/roach88/coedit/internal/ir"
)

const namespace = "coedit"

// Outcome label values.
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
)

// Metrics records patch outcomes. It implements engine.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	// PatchesTotal counts patch attempts.
	// Labels: source (user, llm, system), outcome (applied, rejected), code
	PatchesTotal *prometheus.CounterVec

	// OperationsTotal counts operations in applied patches.
	// Labels: source
	OperationsTotal *prometheus.CounterVec

	// PatchDurationSeconds measures validate-and-commit time.
	// Labels: source
	PatchDurationSeconds *prometheus.HistogramVec

	// RejectedTextTotal counts raw patch text that failed to parse.
	// Labels: source
	RejectedTextTotal *prometheus.CounterVec
}

var _ engine.Recorder = (*Metrics)(nil)

// New creates Metrics on a fresh registry. Go runtime and process
// collectors are registered too when withRuntime is true.
func New(withRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		PatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "patches_total",
				Help:      "Total patch attempts by source, outcome and error code",
			},
			[]string{"source", "outcome", "code"},
		),
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "operations_applied_total",
				Help:      "Total operations committed by source",
			},
			[]string{"source"},
		),
		PatchDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "patch_duration_seconds",
				Help:      "Time to validate and commit a patch in seconds",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"source"},
		),
		RejectedTextTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "rejected_text_total",
				Help:      "Total raw patch texts rejected before application",
			},
			[]string{"source"},
		),
	}
}

// ObservePatch implements engine.Recorder.
func (m *Metrics) ObservePatch(source ir.Source, ops int, result ir.EditResult, elapsed time.Duration) {
	src := string(source)
	if result.Success {
		m.PatchesTotal.WithLabelValues(src, OutcomeApplied, "").Inc()
		m.OperationsTotal.WithLabelValues(src).Add(float64(result.Applied))
	} else {
		m.PatchesTotal.WithLabelValues(src, OutcomeRejected, string(result.Code)).Inc()
	}
	m.PatchDurationSeconds.WithLabelValues(src).Observe(elapsed.Seconds())
}

// ObserveRejectedText implements engine.Recorder.
func (m *Metrics) ObserveRejectedText(source ir.Source) {
	m.RejectedTextTotal.WithLabelValues(string(source)).Inc()
}

// Registry returns the registry holding these collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
