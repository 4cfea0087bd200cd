package di

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// NewBunDB wraps an already-open sql.DB in a bun handle with the dialect
// matching the named driver. Hosts that manage their own pool use this before
// passing the result to WithBunDB.
func NewBunDB(sqldb *sql.DB, driver string) (*bun.DB, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite", "sqlite3":
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case "postgres", "pg", "pgx":
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("di: unsupported database driver %q", driver)
	}
}
