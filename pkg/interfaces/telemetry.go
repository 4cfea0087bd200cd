package interfaces

import (
	"context"
	"time"
)

// RunSummary aggregates the outcome of a single loader run for analytics
// delivery.
type RunSummary struct {
	RunID         string
	Outcome       string
	LoadedModules []string
	SkippedCount  int
	ErrorCount    int
	Elapsed       time.Duration
	Flags         map[string]bool
}

// AnalyticsSink receives run summaries on completion. Delivery is best
// effort: errors are logged by the caller and never affect loader state.
type AnalyticsSink interface {
	RecordRun(ctx context.Context, summary RunSummary) error
}

// ErrorSink receives critical errors caught before enhancement could start.
// Delivery failures are swallowed.
type ErrorSink interface {
	ReportCritical(ctx context.Context, err error)
}
