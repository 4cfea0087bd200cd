package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-enhance/pkg/interfaces"
)

const (
	rootModule      = "enhance"
	flagsModule     = "enhance.flags"
	catalogModule   = "enhance.catalog"
	loaderModule    = "enhance.loader"
	notifyModule    = "enhance.notify"
	telemetryModule = "enhance.telemetry"
)

const (
	fieldRunID       = "run_id"
	fieldEnhancement = "enhancement"
	fieldResource    = "resource_url"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(map[string]any{
			"module": module,
		})
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// FlagsLogger returns the logger namespace reserved for the flag store.
func FlagsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, flagsModule)
}

// CatalogLogger returns the logger namespace reserved for catalog handling.
func CatalogLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, catalogModule)
}

// LoaderLogger returns the logger namespace reserved for enhancement runs.
func LoaderLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, loaderModule)
}

// NotifyLogger returns the logger namespace reserved for notification output.
func NotifyLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, notifyModule)
}

// TelemetryLogger returns the logger namespace reserved for sink delivery.
func TelemetryLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, telemetryModule)
}

// WithRunContext enriches the provided logger with common loader fields such as
// run ID, enhancement module name, and resource URL. Empty values are ignored.
func WithRunContext(logger interfaces.Logger, runID, enhancement, resource string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(runID); trimmed != "" {
		fields[fieldRunID] = trimmed
	}
	if trimmed := strings.TrimSpace(enhancement); trimmed != "" {
		fields[fieldEnhancement] = trimmed
	}
	if trimmed := strings.TrimSpace(resource); trimmed != "" {
		fields[fieldResource] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
