// Package metrics records simulation runs on a private prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Recorder holds the simulation collectors. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry    *prometheus.Registry
	runs        *prometheus.CounterVec
	transitions *prometheus.CounterVec
	duration    prometheus.Histogram
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scoresim",
			Name:      "runs_total",
			Help:      "Simulation runs by outcome.",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scoresim",
			Name:      "stage_transitions_total",
			Help:      "Stage entries by stage name.",
		}, []string{"stage"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scoresim",
			Name:      "run_duration_seconds",
			Help:      "Run duration from start to completion, measured on the engine clock.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
	}
	r.registry.MustRegister(r.runs, r.transitions, r.duration)
	return r
}

// StageEntered counts a transition into stage.
func (r *Recorder) StageEntered(stage string) {
	if r == nil {
		return
	}
	r.transitions.WithLabelValues(stage).Inc()
}

// RunFinished counts a finished run. Duration is observed for completed
// runs only.
func (r *Recorder) RunFinished(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(outcome).Inc()
	if outcome == OutcomeCompleted {
		r.duration.Observe(d.Seconds())
	}
}

// Registry exposes the registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
