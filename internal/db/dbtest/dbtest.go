// Package dbtest opens throwaway SQLite databases with the full schema and
// seed data applied, for repository and store tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/bunx"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/migrations"
)

// NewDB returns a migrated in-memory database that is closed when the test ends.
// Every call gets its own database, so tests using it may run in parallel.
func NewDB(t testing.TB) *bun.DB {
	t.Helper()

	db, err := bunx.NewDB("file:" + bunx.NewUUIDv7() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = bunx.Close(db) })

	ctx := context.Background()
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	require.NoError(t, migrator.Init(ctx))
	_, err = migrator.Migrate(ctx)
	require.NoError(t, err)

	return db
}
