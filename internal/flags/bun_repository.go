package flags

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// BunRepository persists flag state using a Bun-backed database. State is
// keyed by scope so several deployments can share one table.
type BunRepository struct {
	db          *bun.DB
	scope       string
	broadcaster *changeBroadcaster
}

// NewBunRepository constructs a Bun-backed repository for the given scope.
func NewBunRepository(db *bun.DB, scope string) (*BunRepository, error) {
	trimmed := strings.TrimSpace(scope)
	if trimmed == "" {
		return nil, ErrScopeRequired
	}
	return &BunRepository{
		db:          db,
		scope:       trimmed,
		broadcaster: newChangeBroadcaster(),
	}, nil
}

// Install creates the backing table when it does not exist yet. Safe to call
// on every startup.
func (r *BunRepository) Install(ctx context.Context) error {
	if r.db == nil {
		return errors.New("flags: bun repository requires a database")
	}
	_, err := r.db.NewCreateTable().Model((*stateModel)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Load returns the persisted state for the repository scope. A row whose flag
// mapping cannot be decoded yields the kill switch field plus ErrStateCorrupt
// so callers can discard the mapping without losing stickiness.
func (r *BunRepository) Load(ctx context.Context) (*PersistedState, error) {
	if r.db == nil {
		return nil, errors.New("flags: bun repository requires a database")
	}
	var model stateModel
	err := r.db.NewSelect().Model(&model).Where("scope = ?", r.scope).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStateNotFound
		}
		return nil, err
	}

	state := PersistedState{KillSwitch: model.KillSwitch}
	if strings.TrimSpace(model.Flags) == "" {
		return &state, nil
	}
	var decoded map[string]bool
	if err := json.Unmarshal([]byte(model.Flags), &decoded); err != nil {
		return &state, fmt.Errorf("%w: %v", ErrStateCorrupt, err)
	}
	state.Flags = decoded
	return &state, nil
}

// SaveFlags persists the flag mapping, preserving the kill switch field.
func (r *BunRepository) SaveFlags(ctx context.Context, flags map[string]bool) error {
	if r.db == nil {
		return errors.New("flags: bun repository requires a database")
	}
	encoded, err := json.Marshal(flags)
	if err != nil {
		return err
	}

	stored, err := r.upsert(ctx, func(model *stateModel) {
		model.Flags = string(encoded)
	})
	if err != nil {
		return err
	}
	r.broadcast(ChangeFlagsSaved, stored)
	return nil
}

// SaveKillSwitch persists the kill switch field, preserving the flag mapping.
func (r *BunRepository) SaveKillSwitch(ctx context.Context, active bool) error {
	if r.db == nil {
		return errors.New("flags: bun repository requires a database")
	}
	stored, err := r.upsert(ctx, func(model *stateModel) {
		model.KillSwitch = active
	})
	if err != nil {
		return err
	}
	r.broadcast(ChangeKillSwitchSaved, stored)
	return nil
}

// Clear removes the persisted state for the repository scope.
func (r *BunRepository) Clear(ctx context.Context) error {
	if r.db == nil {
		return errors.New("flags: bun repository requires a database")
	}
	if _, err := r.db.NewDelete().Model((*stateModel)(nil)).Where("scope = ?", r.scope).Exec(ctx); err != nil {
		return err
	}
	r.broadcaster.Broadcast(newChangeEvent(ChangeCleared, PersistedState{}))
	return nil
}

// Subscribe delivers change events until the context is cancelled.
func (r *BunRepository) Subscribe(ctx context.Context) (<-chan ChangeEvent, error) {
	return r.broadcaster.Subscribe(ctx)
}

// upsert applies mutate to the current row (or a fresh one) and writes it
// back. Each field write is individually consistent; concurrent scopes race
// with last-write-wins semantics by design of the shared storage.
func (r *BunRepository) upsert(ctx context.Context, mutate func(*stateModel)) (stateModel, error) {
	var model stateModel
	err := r.db.NewSelect().Model(&model).Where("scope = ?", r.scope).Scan(ctx)
	created := false
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			created = true
			model = stateModel{Scope: r.scope}
		} else {
			return stateModel{}, err
		}
	}

	mutate(&model)
	now := time.Now().UTC()
	model.UpdatedAt = now
	if created {
		model.CreatedAt = now
		if _, err := r.db.NewInsert().Model(&model).Exec(ctx); err != nil {
			return stateModel{}, err
		}
		return model, nil
	}
	if _, err := r.db.NewUpdate().
		Model(&model).
		Column("flags", "kill_switch", "updated_at").
		WherePK().
		Exec(ctx); err != nil {
		return stateModel{}, err
	}
	return model, nil
}

func (r *BunRepository) broadcast(changeType ChangeType, model stateModel) {
	state := PersistedState{KillSwitch: model.KillSwitch}
	if strings.TrimSpace(model.Flags) != "" {
		var decoded map[string]bool
		if err := json.Unmarshal([]byte(model.Flags), &decoded); err == nil {
			state.Flags = decoded
		}
	}
	r.broadcaster.Broadcast(newChangeEvent(changeType, state))
}

type stateModel struct {
	bun.BaseModel `bun:"table:enhancement_flags"`

	Scope      string    `bun:",pk"`
	Flags      string    `bun:"flags"`
	KillSwitch bool      `bun:"kill_switch"`
	CreatedAt  time.Time `bun:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at"`
}
