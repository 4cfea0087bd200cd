package flags

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func TestBunRepository_SaveLoadEvents(t *testing.T) {
	repo := newTestRepo(t, "default")
	ctx := context.Background()

	if _, err := repo.Load(ctx); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected ErrStateNotFound, got %v", err)
	}

	events, err := repo.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if err := repo.SaveFlags(ctx, map[string]bool{"charts": true, "performance": false}); err != nil {
		t.Fatalf("SaveFlags() error = %v", err)
	}
	assertEvent(t, events, ChangeFlagsSaved)

	if err := repo.SaveKillSwitch(ctx, true); err != nil {
		t.Fatalf("SaveKillSwitch() error = %v", err)
	}
	assertEvent(t, events, ChangeKillSwitchSaved)

	state, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !state.Flags["charts"] || state.Flags["performance"] || !state.KillSwitch {
		t.Fatalf("Load() returned %+v", state)
	}

	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	assertEvent(t, events, ChangeCleared)

	if _, err := repo.Load(ctx); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected ErrStateNotFound after Clear, got %v", err)
	}
}

func TestBunRepository_ScopesAreIsolated(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first, err := NewBunRepository(db, "site-a")
	if err != nil {
		t.Fatalf("NewBunRepository() error = %v", err)
	}
	second, err := NewBunRepository(db, "site-b")
	if err != nil {
		t.Fatalf("NewBunRepository() error = %v", err)
	}

	if err := first.SaveFlags(ctx, map[string]bool{"charts": true}); err != nil {
		t.Fatalf("SaveFlags() error = %v", err)
	}
	if _, err := second.Load(ctx); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected scope isolation, got %v", err)
	}
}

func TestBunRepository_CorruptFlagsKeepKillSwitch(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	repo, err := NewBunRepository(db, "default")
	if err != nil {
		t.Fatalf("NewBunRepository() error = %v", err)
	}
	if err := repo.SaveKillSwitch(ctx, true); err != nil {
		t.Fatalf("SaveKillSwitch() error = %v", err)
	}
	if _, err := db.NewUpdate().
		Model((*stateModel)(nil)).
		Set("flags = ?", "{not json").
		Where("scope = ?", "default").
		Exec(ctx); err != nil {
		t.Fatalf("corrupting row: %v", err)
	}

	state, err := repo.Load(ctx)
	if !errors.Is(err, ErrStateCorrupt) {
		t.Fatalf("expected ErrStateCorrupt, got %v", err)
	}
	if state == nil || !state.KillSwitch {
		t.Fatalf("expected kill switch to survive corruption, got %+v", state)
	}
}

func TestBunRepository_RequiresScope(t *testing.T) {
	if _, err := NewBunRepository(newTestDB(t), "  "); !errors.Is(err, ErrScopeRequired) {
		t.Fatalf("expected ErrScopeRequired, got %v", err)
	}
}

func newTestRepo(t *testing.T, scope string) *BunRepository {
	t.Helper()
	repo, err := NewBunRepository(newTestDB(t), scope)
	if err != nil {
		t.Fatalf("NewBunRepository() error = %v", err)
	}
	return repo
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open("sqlite3", "file:"+t.Name()+"?mode=memory&cache=shared&_fk=1")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = sqldb.Close()
	})

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.NewCreateTable().Model((*stateModel)(nil)).IfNotExists().Exec(ctx); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}
