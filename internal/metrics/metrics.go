// Package metrics exposes Prometheus metrics for upgrade runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"evalgo.org/contentupgrade/internal/migration"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Observer records step and run metrics. It implements migration.Observer.
type Observer struct {
	steps    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
}

var _ migration.Observer = (*Observer)(nil)

// NewObserver registers the upgrade metrics with reg. Pass
// prometheus.DefaultRegisterer to expose them on the default /metrics handler.
func NewObserver(reg prometheus.Registerer) *Observer {
	factory := promauto.With(reg)

	return &Observer{
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contentupgrade_steps_total",
			Help: "Upgrade steps executed, by outcome",
		}, []string{"content_type", "version", "outcome"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contentupgrade_step_duration_seconds",
			Help:    "Time spent waiting for an upgrade step to report",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 10},
		}, []string{"content_type", "version"}),

		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contentupgrade_runs_total",
			Help: "Upgrade runs, by outcome",
		}, []string{"content_type", "outcome"}),
	}
}

// StepStarted is a no-op; durations are recorded when the step finishes.
func (o *Observer) StepStarted(string, migration.Version) {}

// StepFinished counts the step and records how long it took.
func (o *Observer) StepFinished(contentType string, version migration.Version, elapsed time.Duration, err error) {
	v := version.String()
	o.steps.WithLabelValues(contentType, v, outcome(err)).Inc()
	o.duration.WithLabelValues(contentType, v).Observe(elapsed.Seconds())
}

// RunFinished counts a whole upgrade run.
func (o *Observer) RunFinished(contentType string, err error) {
	o.runs.WithLabelValues(contentType, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
