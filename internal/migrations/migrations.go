package migrations

import "github.com/uptrace/bun/migrate"

// Migrations collects every schema migration in this package. Each file
// registers itself from init; bun orders them by the timestamp prefix of the
// file name.
var Migrations = migrate.NewMigrations()
