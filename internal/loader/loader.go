package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-enhance/internal/catalog"
	"github.com/goliatone/go-enhance/internal/flags"
	"github.com/goliatone/go-enhance/internal/logging"
	"github.com/goliatone/go-enhance/internal/readiness"
	"github.com/goliatone/go-enhance/pkg/interfaces"
)

// ErrRunConsumed indicates Start was called on a loader that already ran. A
// run is terminal; a fresh page load gets a fresh loader.
var ErrRunConsumed = errors.New("loader: run already consumed")

// RunState is the loader's position in its lifecycle.
type RunState string

const (
	StateIdle               RunState = "idle"
	StateWaitingForHost     RunState = "waiting_for_host"
	StateWaitingForAppReady RunState = "waiting_for_app_ready"
	StateLoadingModules     RunState = "loading_modules"
	StateCompleted          RunState = "completed"
	StateEmergencyStopped   RunState = "emergency_stopped"
)

const (
	defaultResourceTimeout = 8 * time.Second
	defaultErrorThreshold  = 3

	emergencyNotice = "Optional enhancements were turned off after repeated errors."
)

// FlagGate is the slice of the flag store the loader consumes.
type FlagGate interface {
	IsEnabled(name string) bool
	EmergencyDisable(ctx context.Context) error
	Status() flags.Status
}

// Snapshot is the retained view of a run, safe to read after Start returns.
type Snapshot struct {
	RunID         string
	State         RunState
	LoadedModules []string
	SkippedCount  int
	ErrorCount    int
	StartedAt     time.Time
	FinishedAt    time.Time
	Flags         map[string]bool
}

// Loader drives one enhancement run through its state machine. A single
// goroutine owns the run; every wait is a sequential suspension point.
type Loader struct {
	host    interfaces.Host
	fetcher interfaces.Fetcher
	gate    FlagGate
	catalog *catalog.Catalog

	presenter interfaces.Presenter
	analytics interfaces.AnalyticsSink
	errorSink interfaces.ErrorSink
	logger    interfaces.Logger
	now       func() time.Time
	waiter    *readiness.Waiter

	resourceTimeout time.Duration
	errorThreshold  int
	modules         []string

	subs subscribers

	mu         sync.Mutex
	runID      string
	state      RunState
	started    bool
	loaded     []string
	skipped    int
	errCount   int
	startedAt  time.Time
	finishedAt time.Time
	flags      map[string]bool
}

// Option customizes a loader.
type Option func(*Loader)

// WithLogger sets the run logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithClock overrides the timestamp source, used mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(l *Loader) {
		if clock != nil {
			l.now = clock
		}
	}
}

// WithPresenter sets the notice presenter for emergency stops.
func WithPresenter(presenter interfaces.Presenter) Option {
	return func(l *Loader) {
		if presenter != nil {
			l.presenter = presenter
		}
	}
}

// WithAnalytics sets the run summary sink.
func WithAnalytics(sink interfaces.AnalyticsSink) Option {
	return func(l *Loader) {
		if sink != nil {
			l.analytics = sink
		}
	}
}

// WithErrorSink sets the sink for startup-fatal errors.
func WithErrorSink(sink interfaces.ErrorSink) Option {
	return func(l *Loader) {
		if sink != nil {
			l.errorSink = sink
		}
	}
}

// WithResourceTimeout overrides the per-resource fetch deadline.
func WithResourceTimeout(timeout time.Duration) Option {
	return func(l *Loader) {
		if timeout > 0 {
			l.resourceTimeout = timeout
		}
	}
}

// WithErrorThreshold overrides the circuit breaker threshold.
func WithErrorThreshold(threshold int) Option {
	return func(l *Loader) {
		if threshold > 0 {
			l.errorThreshold = threshold
		}
	}
}

// WithReadiness replaces the content readiness waiter.
func WithReadiness(waiter *readiness.Waiter) Option {
	return func(l *Loader) {
		if waiter != nil {
			l.waiter = waiter
		}
	}
}

// WithModules restricts the run to the named catalog entries, in the order
// given. Names missing from the catalog count as load errors at run time.
func WithModules(names ...string) Option {
	return func(l *Loader) {
		l.modules = append([]string(nil), names...)
	}
}

// New builds a loader for a single run over the given catalog.
func New(host interfaces.Host, fetcher interfaces.Fetcher, gate FlagGate, cat *catalog.Catalog, opts ...Option) *Loader {
	loader := &Loader{
		host:            host,
		fetcher:         fetcher,
		gate:            gate,
		catalog:         cat,
		logger:          logging.NoOp(),
		now:             time.Now,
		waiter:          readiness.NewWaiter(0, 0),
		resourceTimeout: defaultResourceTimeout,
		errorThreshold:  defaultErrorThreshold,
		runID:           uuid.NewString(),
		state:           StateIdle,
	}
	for _, opt := range opts {
		opt(loader)
	}
	if loader.modules == nil && cat != nil {
		loader.modules = cat.Names()
	}
	return loader
}

// RunID identifies this run in logs, events, and analytics.
func (l *Loader) RunID() string {
	return l.runID
}

// Subscribe registers a synchronous event callback and returns its
// unsubscribe function. Callbacks run on the loader goroutine.
func (l *Loader) Subscribe(fn func(Event)) func() {
	if fn == nil {
		return func() {}
	}
	return l.subs.subscribe(fn)
}

// Status returns the retained run snapshot.
func (l *Loader) Status() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	snapshot := Snapshot{
		RunID:        l.runID,
		State:        l.state,
		SkippedCount: l.skipped,
		ErrorCount:   l.errCount,
		StartedAt:    l.startedAt,
		FinishedAt:   l.finishedAt,
	}
	snapshot.LoadedModules = append([]string(nil), l.loaded...)
	if l.flags != nil {
		snapshot.Flags = make(map[string]bool, len(l.flags))
		for name, enabled := range l.flags {
			snapshot.Flags[name] = enabled
		}
	}
	return snapshot
}

// Start drives the run to a terminal state. Per-module failures never escape:
// they become counter increments, log entries, and events. Startup failures
// before module loading are reported to the error sink and the run finishes
// in a no-enhancement baseline. Only a consumed run or context cancellation
// surface as errors.
func (l *Loader) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return ErrRunConsumed
	}
	l.started = true
	l.startedAt = l.now()
	l.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			l.reportStartupFailure(ctx, fmt.Errorf("loader: panic during run: %v", r))
			l.finalize(ctx, StateCompleted)
		}
	}()

	l.setState(StateWaitingForHost)
	if err := l.host.WaitStructure(ctx); err != nil {
		return l.abortStartup(ctx, err)
	}

	l.setState(StateWaitingForAppReady)
	switch err := l.waiter.Wait(ctx, l.host.ContentReady); {
	case err == nil:
	case errors.Is(err, readiness.ErrWaitTimeout):
		// Content never settled inside the budget. Not fatal: the page is
		// structurally ready, so enhancement proceeds on a best-effort basis.
		l.logger.Warn("content readiness budget exhausted, proceeding",
			"run_id", l.runID, "code", readinessTimeoutCode)
	default:
		return l.abortStartup(ctx, err)
	}

	l.setState(StateLoadingModules)
	for _, name := range l.modules {
		if err := ctx.Err(); err != nil {
			return l.abortStartup(ctx, err)
		}

		descriptor, lookupErr := l.catalog.Lookup(name)
		if lookupErr != nil {
			if l.recordFailure(ctx, name, newCatalogMisconfiguration(lookupErr, name)) {
				return nil
			}
			continue
		}

		if !l.gate.IsEnabled(descriptor.FlagName()) {
			l.recordSkip(descriptor.Name)
			continue
		}

		if loadErr := l.loadModule(ctx, descriptor); loadErr != nil {
			if l.recordFailure(ctx, descriptor.Name, loadErr) {
				return nil
			}
			continue
		}
		l.recordLoaded(descriptor.Name)
	}

	l.finalize(ctx, StateCompleted)
	return nil
}

// loadModule satisfies every resource of a descriptor in declared order.
// Already-present resources are satisfied without a fetch.
func (l *Loader) loadModule(ctx context.Context, descriptor catalog.Descriptor) error {
	for _, res := range descriptor.Resources {
		resLogger := logging.WithRunContext(l.logger, l.runID, descriptor.Name, res.URL)
		if l.host.Has(res.URL) {
			resLogger.Debug("resource already present")
			continue
		}

		resCtx, cancel := context.WithTimeout(ctx, l.resourceTimeout)
		err := l.fetcher.Fetch(resCtx, descriptor.Name, res)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return newResourceTimeoutError(err, descriptor.Name, res.URL)
			}
			return newResourceLoadError(err, descriptor.Name, res.URL)
		}
	}
	return nil
}

func (l *Loader) recordSkip(name string) {
	l.mu.Lock()
	l.skipped++
	loadedCount, errCount := len(l.loaded), l.errCount
	l.mu.Unlock()

	l.logger.Debug("enhancement skipped", "run_id", l.runID, "enhancement", name)
	l.subs.publish(Event{
		Type:        EventModuleSkipped,
		RunID:       l.runID,
		Module:      name,
		OccurredAt:  l.now(),
		LoadedCount: loadedCount,
		ErrorCount:  errCount,
	})
}

func (l *Loader) recordLoaded(name string) {
	l.mu.Lock()
	l.loaded = append(l.loaded, name)
	loadedCount, errCount := len(l.loaded), l.errCount
	l.mu.Unlock()

	l.logger.Info("enhancement loaded", "run_id", l.runID, "enhancement", name)
	l.subs.publish(Event{
		Type:        EventModuleLoaded,
		RunID:       l.runID,
		Module:      name,
		OccurredAt:  l.now(),
		LoadedCount: loadedCount,
		ErrorCount:  errCount,
	})
}

// recordFailure bumps the error counter and reports whether the breaker
// tripped, in which case the run has already reached its terminal state.
func (l *Loader) recordFailure(ctx context.Context, name string, cause error) bool {
	l.mu.Lock()
	l.errCount++
	loadedCount, errCount := len(l.loaded), l.errCount
	l.mu.Unlock()

	l.logger.Error("enhancement failed",
		"run_id", l.runID, "enhancement", name, "error", cause, "error_count", errCount)
	l.subs.publish(Event{
		Type:        EventModuleFailed,
		RunID:       l.runID,
		Module:      name,
		Reason:      cause.Error(),
		OccurredAt:  l.now(),
		LoadedCount: loadedCount,
		ErrorCount:  errCount,
	})

	if errCount >= l.errorThreshold {
		l.emergencyStop(ctx)
		return true
	}
	return false
}

// emergencyStop runs the breaker side effects exactly once: sticky disable,
// cleared loaded set, user notice, terminal event.
func (l *Loader) emergencyStop(ctx context.Context) {
	if err := l.gate.EmergencyDisable(ctx); err != nil {
		l.logger.Error("emergency disable failed", "run_id", l.runID, "error", err)
	}

	l.mu.Lock()
	l.loaded = nil
	l.mu.Unlock()

	if l.presenter != nil {
		l.presenter.Present(interfaces.NoticeError, emergencyNotice)
	}
	l.finalize(ctx, StateEmergencyStopped)
}

// abortStartup handles failures before module loading: context cancellation
// propagates, anything else goes to the error sink and the run settles into
// the baseline.
func (l *Loader) abortStartup(ctx context.Context, cause error) error {
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		l.logger.Warn("run cancelled", "run_id", l.runID, "error", cause)
		l.finalize(ctx, StateCompleted)
		return cause
	}
	l.reportStartupFailure(ctx, cause)
	l.finalize(ctx, StateCompleted)
	return nil
}

func (l *Loader) reportStartupFailure(ctx context.Context, cause error) {
	stage := l.currentState()
	wrapped := newStartupError(cause, stage)
	l.logger.Error("enhancement startup failed",
		"run_id", l.runID, "state", string(stage), "error", wrapped)
	if l.errorSink != nil {
		l.errorSink.ReportCritical(ctx, wrapped)
	}
}

// finalize records the terminal snapshot, emits the terminal event, and hands
// the summary to analytics. Best-effort: analytics failures are logged only.
func (l *Loader) finalize(ctx context.Context, state RunState) {
	flagSnapshot := map[string]bool{}
	if l.gate != nil {
		flagSnapshot = l.gate.Status().Flags
	}

	l.mu.Lock()
	l.state = state
	l.finishedAt = l.now()
	l.flags = flagSnapshot
	finishedAt := l.finishedAt
	loaded := append([]string(nil), l.loaded...)
	skipped, errCount := l.skipped, l.errCount
	elapsed := l.finishedAt.Sub(l.startedAt)
	l.mu.Unlock()

	eventType := EventRunCompleted
	if state == StateEmergencyStopped {
		eventType = EventRunEmergencyStopped
	}

	l.logger.Info("run finished",
		"run_id", l.runID, "state", string(state),
		"loaded", len(loaded), "skipped", skipped, "errors", errCount,
		"elapsed", elapsed)

	l.subs.publish(Event{
		Type:        eventType,
		RunID:       l.runID,
		OccurredAt:  finishedAt,
		LoadedCount: len(loaded),
		ErrorCount:  errCount,
		Flags:       flagSnapshot,
	})

	if l.analytics == nil {
		return
	}
	summary := interfaces.RunSummary{
		RunID:         l.runID,
		Outcome:       string(state),
		LoadedModules: loaded,
		SkippedCount:  skipped,
		ErrorCount:    errCount,
		Elapsed:       elapsed,
		Flags:         flagSnapshot,
	}
	if err := l.analytics.RecordRun(ctx, summary); err != nil {
		l.logger.Warn("analytics delivery failed", "run_id", l.runID, "error", err)
	}
}

func (l *Loader) setState(state RunState) {
	l.mu.Lock()
	l.state = state
	l.mu.Unlock()
	l.logger.Debug("state changed", "run_id", l.runID, "state", string(state))
}

func (l *Loader) currentState() RunState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}
