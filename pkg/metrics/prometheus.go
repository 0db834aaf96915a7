package metrics

import (
	"PokerAssist/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pokerassist"

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	advisories      *prometheus.CounterVec
	reasoning       *prometheus.CounterVec
	fallbacks       *prometheus.CounterVec
	observations    *prometheus.CounterVec
	trackedOpponent prometheus.Gauge
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New creates a recorder registered with the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder on the given registerer; tests pass a fresh prometheus.NewRegistry().
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		advisories: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "advisories_total",
				Help:      "Recommendations produced, by action and opponent label",
			},
			[]string{"action", "label"},
		),
		reasoning: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reasoning_total",
				Help:      "Explanations attached, by source",
			},
			[]string{"source"},
		),
		fallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reasoning_fallbacks_total",
				Help:      "Remote reasoning failures that fell back to templates",
			},
			[]string{"reason"},
		),
		observations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "observations_total",
				Help:      "Opponent observations applied, by ingest source",
			},
			[]string{"source"},
		),
		trackedOpponent: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tracked_opponents",
				Help:      "Number of opponents with at least one observation",
			},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordAdvisory(action models.Action, label models.Label) {
	r.advisories.WithLabelValues(string(action), string(label)).Inc()
}

func (r *Recorder) RecordReasoning(source models.ReasoningSource) {
	r.reasoning.WithLabelValues(string(source)).Inc()
}

// RecordFallback counts a template fallback; reason is one of timeout, error, empty.
func (r *Recorder) RecordFallback(reason string) {
	r.fallbacks.WithLabelValues(reason).Inc()
}

func (r *Recorder) RecordObservation(source string) {
	r.observations.WithLabelValues(source).Inc()
}

func (r *Recorder) RecordTrackedOpponents(n int) {
	r.trackedOpponent.Set(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordAdvisory(models.Action, models.Label) {}
func (Nop) RecordReasoning(models.ReasoningSource)     {}
func (Nop) RecordFallback(string)                      {}
func (Nop) RecordObservation(string)                   {}
func (Nop) RecordTrackedOpponents(int)                 {}
func (Nop) RecordError(string)                         {}
func (Nop) RecordLatency(string, float64)              {}
