package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goliatone/go-enhance/pkg/interfaces"
)

func sampleSummary(outcome string) interfaces.RunSummary {
	return interfaces.RunSummary{
		RunID:         "run-1",
		Outcome:       outcome,
		LoadedModules: []string{"performance", "charts"},
		SkippedCount:  1,
		ErrorCount:    1,
		Elapsed:       3 * time.Second,
		Flags:         map[string]bool{"performance": true},
	}
}

func TestNoopSink(t *testing.T) {
	sink := NoopSink{}
	if err := sink.RecordRun(context.Background(), sampleSummary("completed")); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}
	sink.ReportCritical(context.Background(), errors.New("ignored"))
}

func TestLoggerSink(t *testing.T) {
	sink := NewLoggerSink(nil)
	if err := sink.RecordRun(context.Background(), sampleSummary("completed")); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}
	sink.ReportCritical(context.Background(), errors.New("logged"))
}

func TestPrometheusSink_RecordRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewPrometheusSink(reg)

	if err := sink.RecordRun(context.Background(), sampleSummary("completed")); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}
	if err := sink.RecordRun(context.Background(), sampleSummary("emergency_stopped")); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}

	if got := testutil.ToFloat64(sink.runs.WithLabelValues("completed")); got != 1 {
		t.Fatalf("runs{completed} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(sink.runs.WithLabelValues("emergency_stopped")); got != 1 {
		t.Fatalf("runs{emergency_stopped} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(sink.loaded); got != 4 {
		t.Fatalf("loaded = %v, want 4", got)
	}
	if got := testutil.ToFloat64(sink.skipped); got != 2 {
		t.Fatalf("skipped = %v, want 2", got)
	}
	if got := testutil.ToFloat64(sink.errors); got != 2 {
		t.Fatalf("errors = %v, want 2", got)
	}
}
