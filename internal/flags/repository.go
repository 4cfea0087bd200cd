package flags

import (
	"context"
	"errors"
	"maps"
)

// ErrStateNotFound indicates that no flag state has been persisted yet.
var ErrStateNotFound = errors.New("flags: persisted state not found")

// ErrStateCorrupt indicates that the persisted flag mapping could not be
// decoded. Callers discard the mapping and reapply defaults; the kill switch
// field stays authoritative.
var ErrStateCorrupt = errors.New("flags: persisted state is corrupt")

// ErrScopeRequired indicates that repository operations require a scope key.
var ErrScopeRequired = errors.New("flags: scope is required")

// PersistedState is the durable portion of the flag store: the serialized
// mapping and the sticky kill switch, stored as two independent fields.
type PersistedState struct {
	Flags      map[string]bool
	KillSwitch bool
}

// Repository exposes persistence operations for flag state. Writes are
// last-write-wins across concurrent hosts sharing the same storage.
type Repository interface {
	Load(ctx context.Context) (*PersistedState, error)
	SaveFlags(ctx context.Context, flags map[string]bool) error
	SaveKillSwitch(ctx context.Context, active bool) error
	Clear(ctx context.Context) error
	Subscribe(ctx context.Context) (<-chan ChangeEvent, error)
}

// ChangeType enumerates flag state change events.
type ChangeType string

const (
	// ChangeFlagsSaved indicates the flag mapping was persisted.
	ChangeFlagsSaved ChangeType = "flags_saved"
	// ChangeKillSwitchSaved indicates the kill switch field was persisted.
	ChangeKillSwitchSaved ChangeType = "kill_switch_saved"
	// ChangeCleared indicates all persisted state was removed.
	ChangeCleared ChangeType = "cleared"
)

// ChangeEvent reports state mutations to interested subscribers.
type ChangeEvent struct {
	Type  ChangeType
	State PersistedState
}

func cloneState(state PersistedState) PersistedState {
	cloned := state
	if state.Flags != nil {
		cloned.Flags = maps.Clone(state.Flags)
	}
	return cloned
}

func newChangeEvent(changeType ChangeType, state PersistedState) ChangeEvent {
	return ChangeEvent{
		Type:  changeType,
		State: cloneState(state),
	}
}
