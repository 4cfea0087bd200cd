package enhance_test

import (
	"context"
	"errors"
	"testing"

	enhance "github.com/goliatone/go-enhance"
	"github.com/goliatone/go-enhance/internal/di"
	"github.com/goliatone/go-enhance/internal/flags"
	"github.com/goliatone/go-enhance/internal/loader"
)

type stubHost struct {
	present map[string]bool
}

func (h *stubHost) WaitStructure(context.Context) error {
	return nil
}

func (h *stubHost) ContentReady(context.Context) (bool, error) {
	return true, nil
}

func (h *stubHost) Has(url string) bool {
	return h.present[url]
}

type stubFetcher struct {
	errs  map[string]error
	calls int
}

func (f *stubFetcher) Fetch(_ context.Context, module string, _ enhance.Resource) error {
	f.calls++
	return f.errs[module]
}

func testConfig() enhance.Config {
	cfg := enhance.DefaultConfig()
	cfg.Catalog.Modules = []enhance.ModuleConfig{
		{Name: "performance", Resources: []enhance.ResourceConfig{{Kind: "script", URL: "/assets/perf.js"}}},
		{Name: "accessibility", Resources: []enhance.ResourceConfig{{Kind: "script", URL: "/assets/a11y.js"}}},
		{Name: "charts", Resources: []enhance.ResourceConfig{{Kind: "style", URL: "/assets/charts.css"}}},
	}
	cfg.Flags.DefaultEnabled = []string{"performance", "accessibility", "charts"}
	return cfg
}

func TestModuleRunCompletes(t *testing.T) {
	fetcher := &stubFetcher{}
	module, err := enhance.New(testConfig(), di.WithFetcher(fetcher))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	if err := module.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	run := module.NewRun(&stubHost{})
	if err := run.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	status := run.Status()
	if status.State != loader.StateCompleted {
		t.Fatalf("State = %s, want %s", status.State, loader.StateCompleted)
	}
	if len(status.LoadedModules) != 3 {
		t.Fatalf("LoadedModules = %v", status.LoadedModules)
	}
}

func TestModuleEmergencyStopIsStickyAcrossRestarts(t *testing.T) {
	repo := flags.NewMemoryRepository()
	failing := &stubFetcher{errs: map[string]error{
		"performance":   errors.New("boom"),
		"accessibility": errors.New("boom"),
		"charts":        errors.New("boom"),
	}}

	module, err := enhance.New(testConfig(), di.WithFetcher(failing), di.WithRepository(repo))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	if err := module.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	run := module.NewRun(&stubHost{})
	if err := run.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if state := run.Status().State; state != loader.StateEmergencyStopped {
		t.Fatalf("State = %s, want %s", state, loader.StateEmergencyStopped)
	}
	if notice := module.Notifier().Active(); notice == nil {
		t.Fatal("expected an active notice after the emergency stop")
	}

	// A fresh module on the same storage must stay dark until Reset.
	restarted, err := enhance.New(testConfig(), di.WithFetcher(&stubFetcher{}), di.WithRepository(repo))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := restarted.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if !restarted.Flags().Status().EmergencyDisabled {
		t.Fatal("expected the kill switch to survive a restart")
	}

	rerun := restarted.NewRun(&stubHost{})
	if err := rerun.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	status := rerun.Status()
	if status.State != loader.StateCompleted || len(status.LoadedModules) != 0 {
		t.Fatalf("expected an all-skip run, got %+v", status)
	}
	if status.SkippedCount != 3 {
		t.Fatalf("SkippedCount = %d, want 3", status.SkippedCount)
	}

	// Reset restores the defaults and clears stickiness.
	if err := restarted.Flags().Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if !restarted.Flags().IsEnabled("performance") {
		t.Fatal("expected defaults back after Reset")
	}
}

func TestNewRequiresCatalogWhenEnabled(t *testing.T) {
	cfg := enhance.DefaultConfig()
	if _, err := enhance.New(cfg); !errors.Is(err, enhance.ErrCatalogRequired) {
		t.Fatalf("New() error = %v, want ErrCatalogRequired", err)
	}
}
