// Package store is the data access layer backing the channel registry and the
// user directory. It speaks plain database/sql against an embedded sqlite
// file.
package store

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var sqlFiles embed.FS

// Open opens the sqlite database at path, creating the file and schema when
// needed. modernc sqlite serializes writers, so a single connection avoids
// SQLITE_BUSY under concurrent handlers.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("error creating db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error pinging db: %w", err)
	}

	schema, _ := sqlFiles.ReadFile("schema.sql")
	if _, err := db.Exec(string(schema)); err != nil {
		return nil, fmt.Errorf("error creating tables: %w", err)
	}
	return db, nil
}
