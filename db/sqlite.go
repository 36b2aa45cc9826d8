package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"geocapture/internal/logging"

	_ "github.com/mattn/go-sqlite3"
)

// ConnectToSQLite initializes and returns a SQLite connection
func ConnectToSQLite(dbPath string) (*sql.DB, error) {
	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for SQLite: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=10000")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	logging.Info().Str("path", dbPath).Msg("Connected to SQLite database")
	return db, nil
}

// InitializeSchema creates the locations table and its indexes if they don't exist
func InitializeSchema(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS locations (
		id TEXT PRIMARY KEY,
		lat TEXT NOT NULL DEFAULT '',
		lon TEXT NOT NULL DEFAULT '',
		ip TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create locations table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_locations_created_at ON locations (created_at)`)
	if err != nil {
		return fmt.Errorf("failed to create created_at index: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_locations_ip ON locations (ip)`)
	if err != nil {
		return fmt.Errorf("failed to create ip index: %w", err)
	}

	logging.Info().Msg("Database schema initialized successfully")
	return nil
}
