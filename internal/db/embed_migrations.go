package db

import "embed"

// MigrationFS holds the SQL files under internal/db/migrations so cmd/migrate
// works from a single binary with no files on disk.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
