package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the schema of the question catalogue and the round history.
var Migrations = migrate.NewMigrations()
