// Package metrics exposes pipeline counters and latencies to Prometheus.
// All methods are safe on a nil *Metrics so components can run without
// instrumentation in tests and the CLI.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lexgest"

// Batch outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
	OutcomeDropped  = "dropped"
	OutcomeCached   = "cached"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	batches      *prometheus.CounterVec
	runs         *prometheus.CounterVec
	modelLatency *prometheus.HistogramVec
	modelTokens  *prometheus.CounterVec
	inFlight     prometheus.Gauge
	queueDepth   prometheus.Gauge
}

// New registers every collector. withRuntime adds Go and process collectors.
func New(withRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}),
		)
	}

	m := &Metrics{
		registry: reg,
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Batches processed, by outcome.",
		}, []string{"outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Summarization runs, by final status.",
		}, []string{"status"}),
		modelLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_call_seconds",
			Help:      "Model call latency, by tier and result.",
			Buckets:   []float64{.5, 1, 2.5, 5, 10, 20, 40, 60, 120, 180},
		}, []string{"tier", "result"}),
		modelTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_tokens_total",
			Help:      "Tokens reported by the provider, by tier and direction.",
		}, []string{"tier", "direction"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batches_in_flight",
			Help:      "Batches currently awaiting a model response.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_queue_depth",
			Help:      "Jobs waiting for a worker.",
		}),
	}
	reg.MustRegister(m.batches, m.runs, m.modelLatency, m.modelTokens, m.inFlight, m.queueDepth)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) BatchOutcome(outcome string) {
	if m == nil {
		return
	}
	m.batches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RunFinished(status string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
}

// ModelCall records one provider round trip.
func (m *Metrics) ModelCall(tier string, d time.Duration, ok bool, inTokens, outTokens int64) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.modelLatency.WithLabelValues(tier, result).Observe(d.Seconds())
	if inTokens > 0 {
		m.modelTokens.WithLabelValues(tier, "input").Add(float64(inTokens))
	}
	if outTokens > 0 {
		m.modelTokens.WithLabelValues(tier, "output").Add(float64(outTokens))
	}
}

func (m *Metrics) BatchStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *Metrics) BatchDone() {
	if m == nil {
		return
	}
	m.inFlight.Dec()
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}
