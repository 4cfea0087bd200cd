package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-enhance/pkg/interfaces"
)

// PrometheusSink counts run outcomes and per-run module tallies:
//   - enhance_runs_total{outcome}     – runs by terminal state
//   - enhance_modules_loaded_total    – modules loaded across runs
//   - enhance_modules_skipped_total   – modules skipped across runs
//   - enhance_module_errors_total     – module failures across runs
type PrometheusSink struct {
	runs    *prometheus.CounterVec
	loaded  prometheus.Counter
	skipped prometheus.Counter
	errors  prometheus.Counter
}

// NewPrometheusSink registers the sink's collectors against the given
// registerer. Pass prometheus.DefaultRegisterer for process-wide exposure.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	sink := &PrometheusSink{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enhance_runs_total",
				Help: "Loader runs by terminal state",
			},
			[]string{"outcome"},
		),
		loaded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "enhance_modules_loaded_total",
				Help: "Modules loaded across runs",
			},
		),
		skipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "enhance_modules_skipped_total",
				Help: "Modules skipped across runs",
			},
		),
		errors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "enhance_module_errors_total",
				Help: "Module load failures across runs",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(sink.runs, sink.loaded, sink.skipped, sink.errors)
	}
	return sink
}

var _ interfaces.AnalyticsSink = (*PrometheusSink)(nil)

func (s *PrometheusSink) RecordRun(_ context.Context, summary interfaces.RunSummary) error {
	s.runs.WithLabelValues(summary.Outcome).Inc()
	s.loaded.Add(float64(len(summary.LoadedModules)))
	s.skipped.Add(float64(summary.SkippedCount))
	s.errors.Add(float64(summary.ErrorCount))
	return nil
}
