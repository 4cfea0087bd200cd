package flags

import (
	"context"
	"maps"
	"sync"
)

// MemoryRepository stores flag state in-memory for tests and ephemeral hosts.
type MemoryRepository struct {
	mu          sync.RWMutex
	state       *PersistedState
	broadcaster *changeBroadcaster
}

// NewMemoryRepository constructs an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		broadcaster: newChangeBroadcaster(),
	}
}

// Load returns the stored state or ErrStateNotFound when nothing was saved.
func (r *MemoryRepository) Load(context.Context) (*PersistedState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.state == nil {
		return nil, ErrStateNotFound
	}
	cloned := cloneState(*r.state)
	return &cloned, nil
}

// SaveFlags persists the flag mapping, preserving the kill switch field.
func (r *MemoryRepository) SaveFlags(_ context.Context, flags map[string]bool) error {
	r.mu.Lock()
	if r.state == nil {
		r.state = &PersistedState{}
	}
	r.state.Flags = maps.Clone(flags)
	stored := cloneState(*r.state)
	r.mu.Unlock()

	r.broadcaster.Broadcast(newChangeEvent(ChangeFlagsSaved, stored))
	return nil
}

// SaveKillSwitch persists the kill switch field, preserving the flag mapping.
func (r *MemoryRepository) SaveKillSwitch(_ context.Context, active bool) error {
	r.mu.Lock()
	if r.state == nil {
		r.state = &PersistedState{}
	}
	r.state.KillSwitch = active
	stored := cloneState(*r.state)
	r.mu.Unlock()

	r.broadcaster.Broadcast(newChangeEvent(ChangeKillSwitchSaved, stored))
	return nil
}

// Clear removes all persisted state.
func (r *MemoryRepository) Clear(context.Context) error {
	r.mu.Lock()
	r.state = nil
	r.mu.Unlock()

	r.broadcaster.Broadcast(newChangeEvent(ChangeCleared, PersistedState{}))
	return nil
}

// Subscribe delivers change events until the context is cancelled.
func (r *MemoryRepository) Subscribe(ctx context.Context) (<-chan ChangeEvent, error) {
	return r.broadcaster.Subscribe(ctx)
}
