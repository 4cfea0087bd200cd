package enhance

import (
	"context"

	"github.com/goliatone/go-enhance/internal/catalog"
	"github.com/goliatone/go-enhance/internal/di"
	"github.com/goliatone/go-enhance/internal/flags"
	"github.com/goliatone/go-enhance/internal/loader"
	"github.com/goliatone/go-enhance/internal/notify"
	"github.com/goliatone/go-enhance/internal/runtimeconfig"
	"github.com/goliatone/go-enhance/pkg/interfaces"
)

// FlagStore exports the durable flag store.
type FlagStore = flags.Store

// FlagStatus exports the flag store status snapshot.
type FlagStatus = flags.Status

// Catalog exports the validated module catalog.
type Catalog = catalog.Catalog

// CatalogDescriptor exports one catalog entry.
type CatalogDescriptor = catalog.Descriptor

// Loader exports the single-use enhancement loader.
type Loader = loader.Loader

// LoaderEvent exports the loader run event payload.
type LoaderEvent = loader.Event

// LoaderSnapshot exports the retained run snapshot.
type LoaderSnapshot = loader.Snapshot

// RunState exports the loader lifecycle state.
type RunState = loader.RunState

// Notifier exports the stateful notice presenter.
type Notifier = notify.Notifier

// Notice exports the active notice payload.
type Notice = notify.Notice

// FlagCommands exports the flag administration handler bundle.
type FlagCommands = di.FlagCommands

// Host exports the host contract enhancement runs are driven against.
type Host = interfaces.Host

// Fetcher exports the resource fetcher contract.
type Fetcher = interfaces.Fetcher

// Resource exports a module resource locator.
type Resource = interfaces.Resource

// ResourceKind exports the resource kind identifier.
type ResourceKind = interfaces.ResourceKind

// Presenter exports the notice presenter contract.
type Presenter = interfaces.Presenter

// AnalyticsSink exports the run summary sink contract.
type AnalyticsSink = interfaces.AnalyticsSink

// ErrorSink exports the critical error sink contract.
type ErrorSink = interfaces.ErrorSink

// RunSummary exports the analytics run summary payload.
type RunSummary = interfaces.RunSummary

// Module is the top level enhancement runtime façade.
type Module struct {
	container *di.Container
}

// New constructs the runtime from configuration plus optional DI overrides.
// An enabled runtime needs at least one catalog module, supplied through
// configuration, a catalog file, or di.WithCatalog.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if cfg.Enabled && container.Catalog().Len() == 0 {
		return nil, runtimeconfig.ErrCatalogRequired
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Initialize loads persisted flag state and applies override sources. Call
// once before the first run.
func (m *Module) Initialize(ctx context.Context) error {
	return m.container.Store().Initialize(ctx)
}

// Flags exposes the durable flag store.
func (m *Module) Flags() *FlagStore {
	return m.container.Store()
}

// Catalog exposes the validated module catalog.
func (m *Module) Catalog() *Catalog {
	return m.container.Catalog()
}

// NewRun builds a fresh single-use loader for the given host. Each page load
// gets its own run.
func (m *Module) NewRun(host Host) *Loader {
	return m.container.NewLoader(host)
}

// Notifier exposes the stateful notifier, or nil when notifications are off.
func (m *Module) Notifier() *Notifier {
	return m.container.Notifier()
}

// Analytics exposes the wired analytics sink.
func (m *Module) Analytics() AnalyticsSink {
	return m.container.Analytics()
}

// FlagCommands exposes the flag administration handlers, or nil when the
// commands feature is off.
func (m *Module) FlagCommands() *FlagCommands {
	return m.container.FlagCommands()
}
