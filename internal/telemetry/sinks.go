package telemetry

import (
	"context"

	"github.com/goliatone/go-enhance/internal/logging"
	"github.com/goliatone/go-enhance/pkg/interfaces"
)

// NoopSink satisfies both sink contracts and discards everything. It is the
// default wiring when telemetry is disabled.
type NoopSink struct{}

var (
	_ interfaces.AnalyticsSink = NoopSink{}
	_ interfaces.ErrorSink     = NoopSink{}
)

func (NoopSink) RecordRun(context.Context, interfaces.RunSummary) error {
	return nil
}

func (NoopSink) ReportCritical(context.Context, error) {}

// LoggerSink routes run summaries and critical errors to the log stream.
type LoggerSink struct {
	logger interfaces.Logger
}

// NewLoggerSink creates a sink that only logs.
func NewLoggerSink(logger interfaces.Logger) *LoggerSink {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &LoggerSink{logger: logger}
}

var (
	_ interfaces.AnalyticsSink = (*LoggerSink)(nil)
	_ interfaces.ErrorSink     = (*LoggerSink)(nil)
)

func (s *LoggerSink) RecordRun(_ context.Context, summary interfaces.RunSummary) error {
	s.logger.Info("run recorded",
		"run_id", summary.RunID,
		"outcome", summary.Outcome,
		"loaded", len(summary.LoadedModules),
		"skipped", summary.SkippedCount,
		"errors", summary.ErrorCount,
		"elapsed", summary.Elapsed)
	return nil
}

func (s *LoggerSink) ReportCritical(_ context.Context, err error) {
	s.logger.Error("critical failure reported", "error", err)
}
