package di

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-enhance/internal/catalog"
	"github.com/goliatone/go-enhance/internal/commands"
	flagscmd "github.com/goliatone/go-enhance/internal/commands/flags"
	"github.com/goliatone/go-enhance/internal/flags"
	"github.com/goliatone/go-enhance/internal/loader"
	"github.com/goliatone/go-enhance/internal/logging"
	"github.com/goliatone/go-enhance/internal/logging/console"
	"github.com/goliatone/go-enhance/internal/logging/gologger"
	"github.com/goliatone/go-enhance/internal/notify"
	"github.com/goliatone/go-enhance/internal/readiness"
	"github.com/goliatone/go-enhance/internal/runtimeconfig"
	"github.com/goliatone/go-enhance/internal/telemetry"
	"github.com/goliatone/go-enhance/pkg/interfaces"
)

// Container wires runtime dependencies from configuration. Hosts override
// individual bindings through Options; everything else is built from Config.
type Container struct {
	Config runtimeconfig.Config

	bunDB          *bun.DB
	loggerProvider interfaces.LoggerProvider
	repository     flags.Repository
	store          *flags.Store
	catalog        *catalog.Catalog
	presenter      interfaces.Presenter
	notifier       *notify.Notifier
	analytics      interfaces.AnalyticsSink
	errorSink      interfaces.ErrorSink
	fetcher        interfaces.Fetcher
	registerer     prometheus.Registerer

	flagCommands *FlagCommands
}

// FlagCommands bundles the flag administration handlers built when the
// commands feature is on.
type FlagCommands struct {
	Enable           *flagscmd.EnableFlagHandler
	Disable          *flagscmd.DisableFlagHandler
	Toggle           *flagscmd.ToggleFlagHandler
	EmergencyDisable *flagscmd.EmergencyDisableHandler
	Reset            *flagscmd.ResetFlagsHandler
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithBunDB supplies the database handle required by the bun flag repository.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithLoggerProvider overrides the configured logger provider.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithRepository overrides the flag repository binding.
func WithRepository(repo flags.Repository) Option {
	return func(c *Container) {
		c.repository = repo
	}
}

// WithCatalog overrides the catalog built from configuration.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(c *Container) {
		c.catalog = cat
	}
}

// WithPresenter overrides the notice presenter binding.
func WithPresenter(presenter interfaces.Presenter) Option {
	return func(c *Container) {
		c.presenter = presenter
	}
}

// WithAnalytics overrides the analytics sink binding.
func WithAnalytics(sink interfaces.AnalyticsSink) Option {
	return func(c *Container) {
		c.analytics = sink
	}
}

// WithErrorSink overrides the error sink binding.
func WithErrorSink(sink interfaces.ErrorSink) Option {
	return func(c *Container) {
		c.errorSink = sink
	}
}

// WithFetcher overrides the resource fetcher used by loader runs.
func WithFetcher(fetcher interfaces.Fetcher) Option {
	return func(c *Container) {
		c.fetcher = fetcher
	}
}

// WithPrometheusRegisterer sets the registry for the prometheus telemetry
// provider. Defaults to the process-wide registerer.
func WithPrometheusRegisterer(reg prometheus.Registerer) Option {
	return func(c *Container) {
		c.registerer = reg
	}
}

// NewContainer validates the configuration and wires every service.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		opt(c)
	}

	c.initLogging()
	if err := c.initCatalog(); err != nil {
		return nil, err
	}
	if err := c.initFlags(); err != nil {
		return nil, err
	}
	c.initNotifications()
	c.initTelemetry()

	if c.fetcher == nil {
		c.fetcher = loader.NewHTTPFetcher()
	}
	if cfg.Features.Commands {
		c.initFlagCommands()
	}
	return c, nil
}

func (c *Container) initLogging() {
	if c.loggerProvider != nil {
		return
	}
	if !c.Config.Features.Logger {
		c.loggerProvider = noopProvider{}
		return
	}

	switch runtimeconfig.NormalizeProvider(c.Config.Logging.Provider) {
	case runtimeconfig.LoggingProviderGoLogger:
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     c.Config.Logging.Level,
			Format:    c.Config.Logging.Format,
			AddSource: c.Config.Logging.AddSource,
			Focus:     c.Config.Logging.Focus,
		})
		if err == nil {
			c.loggerProvider = provider
			return
		}
		// Config.Validate vets provider settings, so this is unreachable in
		// practice; fall back to console rather than drop logs.
		c.loggerProvider = console.NewProvider(console.Options{})
	default:
		c.loggerProvider = console.NewProvider(console.Options{})
	}
}

func (c *Container) initCatalog() error {
	if c.catalog != nil {
		return nil
	}
	logger := logging.CatalogLogger(c.loggerProvider)
	if path := c.Config.Catalog.Path; path != "" {
		cat, err := catalog.LoadFile(path)
		if err != nil {
			return err
		}
		c.catalog = cat
		logger.Debug("catalog loaded", "path", path, "modules", cat.Len())
		return nil
	}

	descriptors := make([]catalog.Descriptor, 0, len(c.Config.Catalog.Modules))
	for _, module := range c.Config.Catalog.Modules {
		resources := make([]interfaces.Resource, 0, len(module.Resources))
		for _, res := range module.Resources {
			resources = append(resources, interfaces.Resource{
				Kind: interfaces.ResourceKind(res.Kind),
				URL:  res.URL,
			})
		}
		descriptors = append(descriptors, catalog.Descriptor{
			Name:      module.Name,
			Resources: resources,
		})
	}
	cat, err := catalog.New(descriptors)
	if err != nil {
		return err
	}
	c.catalog = cat
	logger.Debug("catalog ready", "modules", cat.Len())
	return nil
}

func (c *Container) initFlags() error {
	if c.repository == nil {
		switch runtimeconfig.NormalizeProvider(c.Config.Flags.Storage.Provider) {
		case runtimeconfig.StorageProviderBun:
			if c.bunDB == nil {
				return runtimeconfig.ErrFlagsStorageDatabaseRequired
			}
			repo, err := flags.NewBunRepository(c.bunDB, c.Config.Flags.Scope)
			if err != nil {
				return err
			}
			if err := repo.Install(context.Background()); err != nil {
				return err
			}
			c.repository = repo
		default:
			c.repository = flags.NewMemoryRepository()
		}
	}

	known := c.Config.Flags.Known
	if len(known) == 0 {
		known = c.catalog.Names()
	}

	storeOpts := []flags.Option{
		flags.WithLogger(logging.FlagsLogger(c.loggerProvider)),
	}
	if query := c.Config.Flags.Query; query != "" {
		storeOpts = append(storeOpts, flags.WithQueryOverrides(query))
	}
	c.store = flags.NewStore(c.repository, known, c.Config.Flags.DefaultEnabled, storeOpts...)
	return nil
}

func (c *Container) initNotifications() {
	if c.presenter != nil {
		return
	}
	logger := logging.NotifyLogger(c.loggerProvider)
	if !c.Config.Features.Notifications {
		c.presenter = notify.NewLogPresenter(logger)
		return
	}
	c.notifier = notify.NewNotifier(
		notify.WithTTL(c.Config.Notifications.TTL),
		notify.WithLogger(logger),
	)
	c.presenter = c.notifier
}

func (c *Container) initTelemetry() {
	logger := logging.TelemetryLogger(c.loggerProvider)
	if c.errorSink == nil {
		c.errorSink = telemetry.NewLoggerSink(logger)
	}
	if c.analytics != nil {
		return
	}
	if !c.Config.Features.Telemetry {
		c.analytics = telemetry.NoopSink{}
		return
	}

	switch runtimeconfig.NormalizeProvider(c.Config.Telemetry.Provider) {
	case runtimeconfig.TelemetryProviderLogger:
		c.analytics = telemetry.NewLoggerSink(logger)
	case runtimeconfig.TelemetryProviderPrometheus:
		reg := c.registerer
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		c.analytics = telemetry.NewPrometheusSink(reg)
	default:
		c.analytics = telemetry.NoopSink{}
	}
}

func (c *Container) initFlagCommands() {
	logger := commands.CommandLogger(c.loggerProvider, "flags")
	gates := flagscmd.FeatureGates{Enabled: func() bool { return c.Config.Enabled }}
	c.flagCommands = &FlagCommands{
		Enable:           flagscmd.NewEnableFlagHandler(c.store, logger, gates),
		Disable:          flagscmd.NewDisableFlagHandler(c.store, logger, gates),
		Toggle:           flagscmd.NewToggleFlagHandler(c.store, logger, gates),
		EmergencyDisable: flagscmd.NewEmergencyDisableHandler(c.store, logger, gates),
		Reset:            flagscmd.NewResetFlagsHandler(c.store, logger, gates),
	}
}

// NewLoader builds a fresh single-use loader bound to the given host. A new
// page load gets a new loader.
func (c *Container) NewLoader(host interfaces.Host) *loader.Loader {
	waiter := readiness.NewWaiter(
		c.Config.Loader.ReadinessInterval,
		c.Config.Loader.ReadinessCap,
	)
	return loader.New(host, c.fetcher, c.store, c.catalog,
		loader.WithLogger(logging.LoaderLogger(c.loggerProvider)),
		loader.WithPresenter(c.presenter),
		loader.WithAnalytics(c.analytics),
		loader.WithErrorSink(c.errorSink),
		loader.WithResourceTimeout(c.Config.Loader.ResourceTimeout),
		loader.WithErrorThreshold(c.Config.Loader.ErrorThreshold),
		loader.WithReadiness(waiter),
	)
}

// Store exposes the wired flag store.
func (c *Container) Store() *flags.Store {
	return c.store
}

// Catalog exposes the wired module catalog.
func (c *Container) Catalog() *catalog.Catalog {
	return c.catalog
}

// Presenter exposes the wired notice presenter.
func (c *Container) Presenter() interfaces.Presenter {
	return c.presenter
}

// Notifier exposes the stateful notifier, or nil when notifications are off
// or the presenter was overridden.
func (c *Container) Notifier() *notify.Notifier {
	return c.notifier
}

// Analytics exposes the wired analytics sink.
func (c *Container) Analytics() interfaces.AnalyticsSink {
	return c.analytics
}

// ErrorSink exposes the wired error sink.
func (c *Container) ErrorSink() interfaces.ErrorSink {
	return c.errorSink
}

// FlagCommands exposes the flag administration handlers, or nil when the
// commands feature is off.
func (c *Container) FlagCommands() *FlagCommands {
	return c.flagCommands
}

// LoggerProvider exposes the wired logger provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// noopProvider hands out no-op loggers when the logging feature is off.
type noopProvider struct{}

func (noopProvider) GetLogger(string) interfaces.Logger {
	return logging.NoOp()
}
