package migrations

import (
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// supportsCascade reports whether DROP TABLE may carry CASCADE. SQLite rejects it.
func supportsCascade(db *bun.DB) bool {
	return db.Dialect().Name() == dialect.PG
}
