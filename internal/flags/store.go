package flags

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-enhance/internal/logging"
	"github.com/goliatone/go-enhance/pkg/interfaces"
)

// ErrFlagUnknown indicates a mutation targeting a name outside the fixed key
// set. Reads stay fail-closed and return false instead.
var ErrFlagUnknown = errors.New("flags: unknown flag")

// ErrNotInitialized indicates that Initialize has not been called yet.
var ErrNotInitialized = errors.New("flags: store not initialized")

// Status is an externally observable snapshot of the store.
type Status struct {
	Flags             map[string]bool
	EnabledCount      int
	TotalCount        int
	EmergencyDisabled bool
}

// Store owns the boolean flag configuration: a fixed key set merged from
// multiple sources at initialization, mutated through explicit operations,
// each mutation persisted synchronously. A sticky kill switch forces every
// read to false until Reset.
type Store struct {
	mu        sync.RWMutex
	repo      Repository
	logger    interfaces.Logger
	known     []string
	defaults  map[string]bool
	overrides Overrides

	flags       map[string]bool
	kill        bool
	initialized bool
}

// Option customises store construction.
type Option func(*Store)

// WithLogger injects the flag store logger. Defaults to a no-op logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithOverride records an explicit per-flag override applied at
// initialization, above persisted state.
func WithOverride(name string, enabled bool) Option {
	return func(s *Store) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			s.overrides.Flags[trimmed] = enabled
		}
	}
}

// WithQueryOverrides parses a raw URL query for enable-/disable- parameters
// and the enable-all test parameter.
func WithQueryOverrides(rawQuery string) Option {
	return func(s *Store) {
		parsed := ParseQuery(rawQuery)
		maps.Copy(s.overrides.Flags, parsed.Flags)
		if parsed.EnableAll {
			s.overrides.EnableAll = true
		}
	}
}

// WithEnableAll forces every known flag on at initialization, used by test
// deployments. The kill switch still wins.
func WithEnableAll() Option {
	return func(s *Store) {
		s.overrides.EnableAll = true
	}
}

// NewStore constructs a flag store over the given repository. The key set is
// fixed to the union of known and defaultEnabled; names outside it always
// read false.
func NewStore(repo Repository, known []string, defaultEnabled []string, opts ...Option) *Store {
	s := &Store{
		repo:      repo,
		logger:    logging.NoOp(),
		defaults:  make(map[string]bool),
		overrides: Overrides{Flags: map[string]bool{}},
	}
	for _, name := range known {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			if _, seen := s.defaults[trimmed]; !seen {
				s.known = append(s.known, trimmed)
			}
			s.defaults[trimmed] = false
		}
	}
	for _, name := range defaultEnabled {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			if _, seen := s.defaults[trimmed]; !seen {
				s.known = append(s.known, trimmed)
			}
			s.defaults[trimmed] = true
		}
	}
	sort.Strings(s.known)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize builds the in-memory state by merging sources in precedence
// order: enable-all test override, explicit per-flag overrides, persisted
// mapping, built-in defaults. An active kill switch overrides everything to
// false and stays sticky until Reset. Malformed persisted data is discarded
// with a warning, never surfaced as an error.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	flags := maps.Clone(s.defaults)
	kill := false

	if s.repo != nil {
		state, err := s.repo.Load(ctx)
		switch {
		case err == nil:
			kill = state.KillSwitch
			s.mergeKnown(flags, state.Flags)
		case errors.Is(err, ErrStateCorrupt):
			if state != nil {
				kill = state.KillSwitch
			}
			s.logger.Warn("flags.state.corrupt_discarded", "error", err)
		case errors.Is(err, ErrStateNotFound):
			// First run, defaults apply.
		default:
			return err
		}
	}

	s.mergeKnown(flags, s.overrides.Flags)
	if s.overrides.EnableAll {
		for name := range flags {
			flags[name] = true
		}
	}
	if kill {
		for name := range flags {
			flags[name] = false
		}
	}

	s.flags = flags
	s.kill = kill
	s.initialized = true
	s.logger.Debug("flags.initialized",
		"total", len(flags),
		"enabled", countEnabled(flags),
		"emergency_disabled", kill,
	)
	return nil
}

// IsEnabled is a fail-closed read: unknown names and an active kill switch
// both resolve to false.
func (s *Store) IsEnabled(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized || s.kill {
		return false
	}
	return s.flags[name]
}

// Enable switches a flag on and persists the mapping immediately.
func (s *Store) Enable(ctx context.Context, name string) error {
	return s.set(ctx, name, true)
}

// Disable switches a flag off and persists the mapping immediately.
func (s *Store) Disable(ctx context.Context, name string) error {
	return s.set(ctx, name, false)
}

// Toggle flips a flag and persists the mapping immediately.
func (s *Store) Toggle(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	current, ok := s.flags[name]
	if !ok {
		return errUnknown(name)
	}
	return s.persistLocked(ctx, name, !current)
}

// EmergencyDisable sets the sticky kill switch, zeroes every flag, and
// persists both fields. The kill switch is written first so stickiness
// survives a partial failure.
func (s *Store) EmergencyDisable(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.kill = true
	for name := range s.flags {
		s.flags[name] = false
	}
	if s.repo != nil {
		if err := s.repo.SaveKillSwitch(ctx, true); err != nil {
			return err
		}
		if err := s.repo.SaveFlags(ctx, s.flags); err != nil {
			return err
		}
	}
	s.logger.Warn("flags.emergency_disabled")
	return nil
}

// Reset clears persisted state and the kill switch, then reinitializes from
// the built-in defaults. One-time overrides are not reapplied.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.Clear(ctx); err != nil {
			return err
		}
	}
	s.flags = maps.Clone(s.defaults)
	s.kill = false
	s.initialized = true
	s.logger.Info("flags.reset")
	return nil
}

// Status returns a point-in-time snapshot of the store.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(map[string]bool, len(s.flags))
	for _, name := range s.known {
		if s.kill {
			snapshot[name] = false
			continue
		}
		snapshot[name] = s.flags[name]
	}
	return Status{
		Flags:             snapshot,
		EnabledCount:      countEnabled(snapshot),
		TotalCount:        len(s.known),
		EmergencyDisabled: s.kill,
	}
}

// Known returns the fixed flag key set in sorted order.
func (s *Store) Known() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.known...)
}

func (s *Store) set(ctx context.Context, name string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	if _, ok := s.flags[name]; !ok {
		return errUnknown(name)
	}
	return s.persistLocked(ctx, name, enabled)
}

func (s *Store) persistLocked(ctx context.Context, name string, enabled bool) error {
	s.flags[name] = enabled
	if s.repo != nil {
		if err := s.repo.SaveFlags(ctx, s.flags); err != nil {
			return err
		}
	}
	s.logger.Debug("flags.set", "flag", name, "enabled", enabled)
	return nil
}

// mergeKnown copies values from src for keys inside the fixed set only.
func (s *Store) mergeKnown(dst map[string]bool, src map[string]bool) {
	for name, enabled := range src {
		if _, ok := s.defaults[name]; ok {
			dst[name] = enabled
		}
	}
}

func countEnabled(flags map[string]bool) int {
	count := 0
	for _, enabled := range flags {
		if enabled {
			count++
		}
	}
	return count
}

func errUnknown(name string) error {
	return fmt.Errorf("%w: %s", ErrFlagUnknown, name)
}
