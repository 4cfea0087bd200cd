package enhance

import "github.com/goliatone/go-enhance/internal/runtimeconfig"

var (
	ErrFlagsStorageProviderUnknown  = runtimeconfig.ErrFlagsStorageProviderUnknown
	ErrFlagsStorageDatabaseRequired = runtimeconfig.ErrFlagsStorageDatabaseRequired
	ErrCatalogRequired              = runtimeconfig.ErrCatalogRequired
	ErrErrorThresholdInvalid        = runtimeconfig.ErrErrorThresholdInvalid
	ErrResourceTimeoutInvalid       = runtimeconfig.ErrResourceTimeoutInvalid
	ErrReadinessBudgetInvalid       = runtimeconfig.ErrReadinessBudgetInvalid
	ErrNoticeTTLInvalid             = runtimeconfig.ErrNoticeTTLInvalid
	ErrLoggingProviderRequired      = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown       = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid          = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid         = runtimeconfig.ErrLoggingFormatInvalid
	ErrTelemetryProviderUnknown     = runtimeconfig.ErrTelemetryProviderUnknown
)

type (
	Config             = runtimeconfig.Config
	FlagsConfig        = runtimeconfig.FlagsConfig
	StorageConfig      = runtimeconfig.StorageConfig
	CatalogConfig      = runtimeconfig.CatalogConfig
	ModuleConfig       = runtimeconfig.ModuleConfig
	ResourceConfig     = runtimeconfig.ResourceConfig
	LoaderConfig       = runtimeconfig.LoaderConfig
	NotificationConfig = runtimeconfig.NotificationConfig
	TelemetryConfig    = runtimeconfig.TelemetryConfig
	Features           = runtimeconfig.Features
	LoggingConfig      = runtimeconfig.LoggingConfig
)

// DefaultConfig returns the baseline configuration: memory-backed flags, a
// threshold of three errors, and conservative timing budgets.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
