package flagscmd

import (
	"context"
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-enhance/internal/commands"
	"github.com/goliatone/go-enhance/internal/logging"
	"github.com/goliatone/go-enhance/pkg/interfaces"
)

const (
	enableFlagMessageType       = "enhance.flags.enable"
	disableFlagMessageType      = "enhance.flags.disable"
	toggleFlagMessageType       = "enhance.flags.toggle"
	emergencyDisableMessageType = "enhance.flags.emergency_disable"
	resetFlagsMessageType       = "enhance.flags.reset"
)

// ErrFlagsDisabled rejects flag administration when the runtime itself is off.
var ErrFlagsDisabled = errors.New("flags command: runtime disabled")

// Service is the slice of the flag store the command handlers need.
type Service interface {
	Enable(ctx context.Context, name string) error
	Disable(ctx context.Context, name string) error
	Toggle(ctx context.Context, name string) error
	EmergencyDisable(ctx context.Context) error
	Reset(ctx context.Context) error
}

// FeatureGates exposes the runtime toggle required by flag command handlers.
type FeatureGates struct {
	Enabled func() bool
}

func (g FeatureGates) enabled() bool {
	if g.Enabled == nil {
		return true
	}
	return g.Enabled()
}

func validateFlagName(name string) error {
	return validation.Validate(name,
		validation.Required.Error("flag name is required"),
		validation.Length(1, 128))
}

// EnableFlagCommand turns one flag on.
type EnableFlagCommand struct {
	Name string
}

// Type implements command.Message.
func (EnableFlagCommand) Type() string { return enableFlagMessageType }

// Validate satisfies command.Message.
func (c EnableFlagCommand) Validate() error {
	return validateFlagName(c.Name)
}

// DisableFlagCommand turns one flag off.
type DisableFlagCommand struct {
	Name string
}

// Type implements command.Message.
func (DisableFlagCommand) Type() string { return disableFlagMessageType }

// Validate satisfies command.Message.
func (c DisableFlagCommand) Validate() error {
	return validateFlagName(c.Name)
}

// ToggleFlagCommand flips one flag.
type ToggleFlagCommand struct {
	Name string
}

// Type implements command.Message.
func (ToggleFlagCommand) Type() string { return toggleFlagMessageType }

// Validate satisfies command.Message.
func (c ToggleFlagCommand) Validate() error {
	return validateFlagName(c.Name)
}

// EmergencyDisableCommand sets the sticky kill switch and zeroes every flag.
type EmergencyDisableCommand struct{}

// Type implements command.Message.
func (EmergencyDisableCommand) Type() string { return emergencyDisableMessageType }

// Validate satisfies command.Message.
func (EmergencyDisableCommand) Validate() error { return nil }

// ResetFlagsCommand clears persisted state and the kill switch, restoring
// defaults.
type ResetFlagsCommand struct{}

// Type implements command.Message.
func (ResetFlagsCommand) Type() string { return resetFlagsMessageType }

// Validate satisfies command.Message.
func (ResetFlagsCommand) Validate() error { return nil }

// EnableFlagHandler orchestrates enabling a single flag.
type EnableFlagHandler struct {
	inner *commands.Handler[EnableFlagCommand]
}

// NewEnableFlagHandler constructs a handler wired to the provided flag service.
func NewEnableFlagHandler(service Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[EnableFlagCommand]) *EnableFlagHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg EnableFlagCommand) error {
		if !gates.enabled() {
			return ErrFlagsDisabled
		}
		if err := service.Enable(ctx, msg.Name); err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"flag": msg.Name,
		}).Info("flags.command.enabled")
		return nil
	}

	handlerOpts := []commands.HandlerOption[EnableFlagCommand]{
		commands.WithLogger[EnableFlagCommand](baseLogger),
		commands.WithOperation[EnableFlagCommand]("flags.enable"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &EnableFlagHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[EnableFlagCommand].
func (h *EnableFlagHandler) Execute(ctx context.Context, msg EnableFlagCommand) error {
	return h.inner.Execute(ctx, msg)
}

// DisableFlagHandler orchestrates disabling a single flag.
type DisableFlagHandler struct {
	inner *commands.Handler[DisableFlagCommand]
}

// NewDisableFlagHandler constructs a handler wired to the provided flag service.
func NewDisableFlagHandler(service Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[DisableFlagCommand]) *DisableFlagHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg DisableFlagCommand) error {
		if !gates.enabled() {
			return ErrFlagsDisabled
		}
		if err := service.Disable(ctx, msg.Name); err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"flag": msg.Name,
		}).Info("flags.command.disabled")
		return nil
	}

	handlerOpts := []commands.HandlerOption[DisableFlagCommand]{
		commands.WithLogger[DisableFlagCommand](baseLogger),
		commands.WithOperation[DisableFlagCommand]("flags.disable"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &DisableFlagHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[DisableFlagCommand].
func (h *DisableFlagHandler) Execute(ctx context.Context, msg DisableFlagCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ToggleFlagHandler orchestrates flipping a single flag.
type ToggleFlagHandler struct {
	inner *commands.Handler[ToggleFlagCommand]
}

// NewToggleFlagHandler constructs a handler wired to the provided flag service.
func NewToggleFlagHandler(service Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[ToggleFlagCommand]) *ToggleFlagHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg ToggleFlagCommand) error {
		if !gates.enabled() {
			return ErrFlagsDisabled
		}
		if err := service.Toggle(ctx, msg.Name); err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"flag": msg.Name,
		}).Info("flags.command.toggled")
		return nil
	}

	handlerOpts := []commands.HandlerOption[ToggleFlagCommand]{
		commands.WithLogger[ToggleFlagCommand](baseLogger),
		commands.WithOperation[ToggleFlagCommand]("flags.toggle"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ToggleFlagHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[ToggleFlagCommand].
func (h *ToggleFlagHandler) Execute(ctx context.Context, msg ToggleFlagCommand) error {
	return h.inner.Execute(ctx, msg)
}

// EmergencyDisableHandler orchestrates the sticky kill switch.
type EmergencyDisableHandler struct {
	inner *commands.Handler[EmergencyDisableCommand]
}

// NewEmergencyDisableHandler constructs a handler wired to the provided flag service.
func NewEmergencyDisableHandler(service Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[EmergencyDisableCommand]) *EmergencyDisableHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, _ EmergencyDisableCommand) error {
		if !gates.enabled() {
			return ErrFlagsDisabled
		}
		if err := service.EmergencyDisable(ctx); err != nil {
			return err
		}
		baseLogger.Warn("flags.command.emergency_disabled")
		return nil
	}

	handlerOpts := []commands.HandlerOption[EmergencyDisableCommand]{
		commands.WithLogger[EmergencyDisableCommand](baseLogger),
		commands.WithOperation[EmergencyDisableCommand]("flags.emergency_disable"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &EmergencyDisableHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[EmergencyDisableCommand].
func (h *EmergencyDisableHandler) Execute(ctx context.Context, msg EmergencyDisableCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ResetFlagsHandler orchestrates clearing persisted flag state.
type ResetFlagsHandler struct {
	inner *commands.Handler[ResetFlagsCommand]
}

// NewResetFlagsHandler constructs a handler wired to the provided flag service.
func NewResetFlagsHandler(service Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[ResetFlagsCommand]) *ResetFlagsHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, _ ResetFlagsCommand) error {
		if !gates.enabled() {
			return ErrFlagsDisabled
		}
		if err := service.Reset(ctx); err != nil {
			return err
		}
		baseLogger.Info("flags.command.reset")
		return nil
	}

	handlerOpts := []commands.HandlerOption[ResetFlagsCommand]{
		commands.WithLogger[ResetFlagsCommand](baseLogger),
		commands.WithOperation[ResetFlagsCommand]("flags.reset"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ResetFlagsHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[ResetFlagsCommand].
func (h *ResetFlagsHandler) Execute(ctx context.Context, msg ResetFlagsCommand) error {
	return h.inner.Execute(ctx, msg)
}
