package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrFlagsStorageProviderUnknown indicates an unsupported flag persistence provider.
var ErrFlagsStorageProviderUnknown = errors.New("enhance config: flags storage provider is invalid")

// ErrFlagsStorageDatabaseRequired ensures bun-backed persistence only builds with a database handle.
var ErrFlagsStorageDatabaseRequired = errors.New("enhance config: bun flags storage requires a database")

// ErrCatalogRequired indicates the loader cannot run without catalog entries.
var ErrCatalogRequired = errors.New("enhance config: loader requires at least one catalog module")

// ErrErrorThresholdInvalid keeps the circuit breaker threshold positive.
var ErrErrorThresholdInvalid = errors.New("enhance config: loader error threshold must be positive")

// ErrResourceTimeoutInvalid keeps per-resource timeouts positive.
var ErrResourceTimeoutInvalid = errors.New("enhance config: loader resource timeout must be positive")

// ErrReadinessBudgetInvalid keeps the readiness polling budget consistent.
var ErrReadinessBudgetInvalid = errors.New("enhance config: readiness interval must not exceed the readiness cap")

// ErrNoticeTTLInvalid keeps the notification auto-expiry positive.
var ErrNoticeTTLInvalid = errors.New("enhance config: notification TTL must be positive")

var ErrLoggingProviderRequired = errors.New("enhance config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("enhance config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("enhance config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("enhance config: logging format is invalid")
var ErrTelemetryProviderUnknown = errors.New("enhance config: telemetry provider is invalid")

// Provider identifiers accepted by Config.
const (
	StorageProviderMemory = "memory"
	StorageProviderBun    = "bun"

	TelemetryProviderNoop       = "noop"
	TelemetryProviderLogger     = "logger"
	TelemetryProviderPrometheus = "prometheus"

	LoggingProviderConsole  = "console"
	LoggingProviderGoLogger = "gologger"
)

// Config aggregates feature flags and adapter bindings for the enhancement module.
// Fields intentionally use simple types so host applications can extend them later.
type Config struct {
	Enabled       bool
	Flags         FlagsConfig
	Catalog       CatalogConfig
	Loader        LoaderConfig
	Notifications NotificationConfig
	Telemetry     TelemetryConfig
	Features      Features
	Logging       LoggingConfig
}

// FlagsConfig captures configuration for the flag store.
type FlagsConfig struct {
	Storage StorageConfig
	// Scope namespaces persisted flag state so several deployments can share
	// one database.
	Scope string
	// DefaultEnabled lists the flags switched on for first-time state.
	DefaultEnabled []string
	// Known fixes the flag key set when it differs from the catalog modules.
	Known []string
	// Query carries the raw URL query used for one-time overrides
	// (enable-<flag>, disable-<flag>, and the enable-all parameter).
	Query string
}

// StorageConfig lists identifiers for flag persistence dependencies.
type StorageConfig struct {
	Provider string
}

// CatalogConfig enumerates the deployable modules in declared priority order.
type CatalogConfig struct {
	Modules []ModuleConfig
	// Path points to a JSON catalog file. When set it replaces Modules.
	Path string
}

// ModuleConfig mirrors the minimal catalog descriptor requirements.
type ModuleConfig struct {
	Name      string
	Resources []ResourceConfig
}

// ResourceConfig declares one ordered resource locator for a module.
type ResourceConfig struct {
	Kind string
	URL  string
}

// LoaderConfig captures run behaviour for the enhancement loader.
type LoaderConfig struct {
	ErrorThreshold    int
	ResourceTimeout   time.Duration
	ReadinessCap      time.Duration
	ReadinessInterval time.Duration
}

// NotificationConfig captures user-notice behaviour on emergency stop.
type NotificationConfig struct {
	TTL time.Duration
}

// TelemetryConfig selects the analytics sink implementation.
type TelemetryConfig struct {
	Provider string
}

// Features toggles module functionality.
type Features struct {
	Notifications bool
	Telemetry     bool
	Commands      bool
	Logger        bool
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns opinionated defaults for a single-host deployment.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Flags: FlagsConfig{
			Storage: StorageConfig{
				Provider: StorageProviderMemory,
			},
			Scope: "default",
		},
		Catalog: CatalogConfig{},
		Loader: LoaderConfig{
			ErrorThreshold:    3,
			ResourceTimeout:   8 * time.Second,
			ReadinessCap:      10 * time.Second,
			ReadinessInterval: 250 * time.Millisecond,
		},
		Notifications: NotificationConfig{
			TTL: 10 * time.Second,
		},
		Telemetry: TelemetryConfig{
			Provider: TelemetryProviderNoop,
		},
		Features: Features{
			Notifications: true,
		},
		Logging: LoggingConfig{
			Provider: LoggingProviderConsole,
			Level:    "info",
			Format:   "",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if provider := NormalizeProvider(cfg.Flags.Storage.Provider); provider != "" && !isSupportedStorage(provider) {
		return fmt.Errorf("%w: %s", ErrFlagsStorageProviderUnknown, provider)
	}
	if cfg.Loader.ErrorThreshold < 0 {
		return ErrErrorThresholdInvalid
	}
	if cfg.Loader.ResourceTimeout < 0 {
		return ErrResourceTimeoutInvalid
	}
	if cfg.Loader.ReadinessCap > 0 && cfg.Loader.ReadinessInterval > cfg.Loader.ReadinessCap {
		return ErrReadinessBudgetInvalid
	}
	if cfg.Features.Notifications && cfg.Notifications.TTL < 0 {
		return ErrNoticeTTLInvalid
	}
	if cfg.Features.Telemetry {
		if provider := NormalizeProvider(cfg.Telemetry.Provider); provider != "" && !isSupportedTelemetry(provider) {
			return fmt.Errorf("%w: %s", ErrTelemetryProviderUnknown, provider)
		}
	}
	if cfg.Features.Logger {
		provider := NormalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == LoggingProviderGoLogger {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

// NormalizeProvider lowercases and trims a provider identifier so config
// lookups and container wiring agree on spelling.
func NormalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedStorage(provider string) bool {
	switch provider {
	case StorageProviderMemory, StorageProviderBun:
		return true
	default:
		return false
	}
}

func isSupportedTelemetry(provider string) bool {
	switch provider {
	case TelemetryProviderNoop, TelemetryProviderLogger, TelemetryProviderPrometheus:
		return true
	default:
		return false
	}
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case LoggingProviderConsole, LoggingProviderGoLogger:
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
