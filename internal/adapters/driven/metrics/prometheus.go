// Package metrics records broker outcomes as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Recorder implements the interface.
var _ driven.MetricsRecorder = (*Recorder)(nil)

// Namespace prefixes every metric name.
const Namespace = "sercha_rag"

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

// Recorder is a driven.MetricsRecorder backed by its own registry.
type Recorder struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	fallbacks  *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// New creates a recorder with a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry creates a recorder that registers its metrics on reg.
func NewWithRegistry(reg *prometheus.Registry) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "operations_total",
				Help:      "Broker operations by mode and outcome.",
			},
			[]string{"op", "mode", "outcome"},
		),
		fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "fallbacks_total",
				Help:      "Real backend failures answered by the simulated backend.",
			},
			[]string{"op", "component"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "operation_duration_seconds",
				Help:      "Broker operation latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op", "fell_back"},
		),
	}
}

// ObserveOperation records one broker call.
func (r *Recorder) ObserveOperation(op string, mode domain.Mode, fellBack bool, failed bool, elapsed time.Duration) {
	outcome := OutcomeOK
	switch {
	case failed:
		outcome = OutcomeError
	case fellBack:
		outcome = OutcomeFallback
	}

	r.operations.WithLabelValues(op, mode.String(), outcome).Inc()
	r.duration.WithLabelValues(op, strconv.FormatBool(fellBack)).Observe(elapsed.Seconds())
}

// ObserveFallback records a fallback from a real backend.
func (r *Recorder) ObserveFallback(op, component string) {
	r.fallbacks.WithLabelValues(op, component).Inc()
}

// Registry returns the registry holding the recorder's metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
