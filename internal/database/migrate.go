package database

import (
	"database/sql"
	"embed"
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type Direction = migrate.MigrationDirection

const (
	Up   = migrate.Up
	Down = migrate.Down
)

func migrationSource() migrate.MigrationSource {
	return migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationFiles,
		Root:       "migrations",
	}
}

// Migrate applies (Up) or rolls back (Down) the embedded schema and returns how many migrations ran.
func Migrate(db *sql.DB, dir Direction) (int, error) {
	n, err := migrate.Exec(db, "postgres", migrationSource(), dir)
	if err != nil {
		return 0, fmt.Errorf("migration failed: %w", err)
	}
	return n, nil
}
