package di

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-enhance/internal/notify"
	"github.com/goliatone/go-enhance/internal/runtimeconfig"
	"github.com/goliatone/go-enhance/internal/telemetry"
)

func testConfig() runtimeconfig.Config {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Catalog.Modules = []runtimeconfig.ModuleConfig{
		{
			Name: "performance",
			Resources: []runtimeconfig.ResourceConfig{
				{Kind: "script", URL: "https://cdn.example.com/perf.js"},
			},
		},
		{
			Name: "charts",
			Resources: []runtimeconfig.ResourceConfig{
				{Kind: "style", URL: "/assets/charts.css"},
			},
		},
	}
	cfg.Flags.DefaultEnabled = []string{"performance"}
	return cfg
}

func newSQLiteDB(t *testing.T) *bun.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:di_%s?mode=memory&cache=shared&_fk=1", t.Name())
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewContainerDefaultWiring(t *testing.T) {
	container, err := NewContainer(testConfig())
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	store := container.Store()
	if store == nil {
		t.Fatal("expected a wired flag store")
	}
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if !store.IsEnabled("performance") {
		t.Fatal("expected default-enabled flag to read true")
	}
	if store.IsEnabled("charts") {
		t.Fatal("expected non-default flag to read false")
	}

	if got := container.Catalog().Len(); got != 2 {
		t.Fatalf("catalog Len() = %d, want 2", got)
	}
	if container.Presenter() == nil {
		t.Fatal("expected a wired presenter")
	}
	if container.Notifier() == nil {
		t.Fatal("expected the stateful notifier when notifications are on")
	}
	if _, ok := container.Analytics().(telemetry.NoopSink); !ok {
		t.Fatalf("expected noop analytics by default, got %T", container.Analytics())
	}
	if container.FlagCommands() != nil {
		t.Fatal("expected no flag commands while the feature is off")
	}
}

func TestNewContainerBunStorageRequiresDatabase(t *testing.T) {
	cfg := testConfig()
	cfg.Flags.Storage.Provider = runtimeconfig.StorageProviderBun

	if _, err := NewContainer(cfg); !errors.Is(err, runtimeconfig.ErrFlagsStorageDatabaseRequired) {
		t.Fatalf("NewContainer error = %v, want ErrFlagsStorageDatabaseRequired", err)
	}
}

func TestNewContainerBunStorageRoundTrip(t *testing.T) {
	cfg := testConfig()
	cfg.Flags.Storage.Provider = runtimeconfig.StorageProviderBun
	cfg.Flags.Scope = "container-test"

	container, err := NewContainer(cfg, WithBunDB(newSQLiteDB(t)))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	ctx := context.Background()
	store := container.Store()
	if err := store.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if err := store.Enable(ctx, "charts"); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}
	if !store.IsEnabled("charts") {
		t.Fatal("expected enabled flag to read true")
	}
}

func TestNewContainerQueryOverrides(t *testing.T) {
	cfg := testConfig()
	cfg.Flags.Query = "enable-charts=true&disable-performance=true"

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	store := container.Store()
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if !store.IsEnabled("charts") || store.IsEnabled("performance") {
		t.Fatalf("overrides not applied, status = %+v", store.Status())
	}
}

func TestNewContainerLogPresenterWhenNotificationsOff(t *testing.T) {
	cfg := testConfig()
	cfg.Features.Notifications = false

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	if container.Notifier() != nil {
		t.Fatal("expected no stateful notifier when notifications are off")
	}
	if _, ok := container.Presenter().(*notify.LogPresenter); !ok {
		t.Fatalf("expected log presenter, got %T", container.Presenter())
	}
}

func TestNewContainerPrometheusTelemetry(t *testing.T) {
	cfg := testConfig()
	cfg.Features.Telemetry = true
	cfg.Telemetry.Provider = runtimeconfig.TelemetryProviderPrometheus

	container, err := NewContainer(cfg, WithPrometheusRegisterer(prometheus.NewRegistry()))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	if _, ok := container.Analytics().(*telemetry.PrometheusSink); !ok {
		t.Fatalf("expected prometheus sink, got %T", container.Analytics())
	}
}

func TestNewContainerFlagCommands(t *testing.T) {
	cfg := testConfig()
	cfg.Features.Commands = true

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	commands := container.FlagCommands()
	if commands == nil || commands.Enable == nil || commands.Reset == nil {
		t.Fatalf("expected wired flag commands, got %+v", commands)
	}
}

func TestContainerNewLoaderIsSingleUse(t *testing.T) {
	container, err := NewContainer(testConfig())
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	first := container.NewLoader(nil)
	second := container.NewLoader(nil)
	if first.RunID() == second.RunID() {
		t.Fatal("expected fresh loaders to carry distinct run IDs")
	}
}
