package storage

import (
	"database/sql"
	"fmt"
)

var migrations = []string{
	// Migration 1: Initial schema
	`CREATE TABLE IF NOT EXISTS usage_records (
		id           TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL,
		user_name    TEXT NOT NULL DEFAULT '',
		email        TEXT NOT NULL DEFAULT '',
		department   TEXT NOT NULL DEFAULT 'Unknown',
		date         DATETIME NOT NULL,
		feature_used TEXT NOT NULL,
		usage_count  REAL NOT NULL DEFAULT 0.0 CHECK(usage_count >= 0),
		cost_usd     REAL NOT NULL DEFAULT 0.0,
		tool_source  TEXT NOT NULL,
		file_source  TEXT NOT NULL,
		created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_usage_email ON usage_records(email);
	CREATE INDEX IF NOT EXISTS idx_usage_date ON usage_records(date);
	CREATE INDEX IF NOT EXISTS idx_usage_tool ON usage_records(tool_source);
	CREATE INDEX IF NOT EXISTS idx_usage_file ON usage_records(file_source);
	CREATE INDEX IF NOT EXISTS idx_usage_coverage ON usage_records(tool_source, user_id, date);

	CREATE TABLE IF NOT EXISTS budgets (
		id                  TEXT PRIMARY KEY,
		name                TEXT NOT NULL UNIQUE,
		limit_usd           REAL NOT NULL,
		period              TEXT NOT NULL CHECK(period IN ('daily', 'weekly', 'monthly')),
		current_spend       REAL NOT NULL DEFAULT 0.0,
		alert_threshold_pct REAL NOT NULL DEFAULT 80.0,
		created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
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
