package storage

import (
	"database/sql"
	"fmt"
)

var migrations = []string{
	// Migration 1: Initial schema
	`CREATE TABLE IF NOT EXISTS bins (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		type       TEXT NOT NULL,
		location   TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS fill_readings (
		id         TEXT PRIMARY KEY,
		bin_id     TEXT NOT NULL,
		bin_type   TEXT NOT NULL DEFAULT '',
		percentage REAL NOT NULL,
		timestamp  DATETIME NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_readings_bin ON fill_readings(bin_id);
	CREATE INDEX IF NOT EXISTS idx_readings_timestamp ON fill_readings(timestamp);

	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,

	// Migration 2: Notifications, one per reading
	`CREATE TABLE IF NOT EXISTS notifications (
		id        TEXT PRIMARY KEY,
		title     TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		is_read   INTEGER NOT NULL DEFAULT 0,
		bin_id    TEXT NOT NULL,
		fill_id   TEXT NOT NULL UNIQUE
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications(is_read, timestamp);`,
}

// runMigrations applies pending schema migrations.
func runMigrations(db *sql.DB) error {
	// Ensure migration tracking table exists
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create migration table: %w", err)
	}

	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("check migration version: %w", err)
	}

	for i := currentVersion; i < len(migrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec(migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("run migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", i+1); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", i+1, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", i+1, err)
		}
	}

	return nil
}
