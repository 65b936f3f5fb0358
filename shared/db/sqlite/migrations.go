package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

// migration represents a single database migration
type migration struct {
	version int
	name    string
	up      string
}

// migrations is the ordered list of all database migrations
var migrations = []migration{
	{
		version: 1,
		name:    "create_categories_table",
		up: `
			CREATE TABLE IF NOT EXISTS categories (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL UNIQUE
			);
		`,
	},
	{
		version: 2,
		name:    "create_posts_table",
		up: `
			CREATE TABLE IF NOT EXISTS posts (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				title TEXT NOT NULL,
				content TEXT NOT NULL,
				url TEXT NOT NULL UNIQUE,
				user_id TEXT NOT NULL,
				category_id INTEGER NOT NULL REFERENCES categories(id),
				active BOOLEAN NOT NULL DEFAULT 1,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			);
		`,
	},
	{
		version: 3,
		name:    "create_posts_lookup_indexes",
		up: `
			CREATE INDEX IF NOT EXISTS idx_posts_active
			ON posts(active, id);

			CREATE INDEX IF NOT EXISTS idx_posts_user_active
			ON posts(user_id, active, id);

			CREATE INDEX IF NOT EXISTS idx_posts_category_active
			ON posts(category_id, active, id);
		`,
	},
	{
		version: 4,
		name:    "seed_default_category",
		up: `
			INSERT OR IGNORE INTO categories (id, name) VALUES (1, 'general');
		`,
	},
}

// runMigrations executes all pending migrations, each in its own transaction
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	currentVersion := 0
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		if err := applyMigration(db, m); err != nil {
			return err
		}

		log.Info().
			Int("version", m.version).
			Str("name", m.name).
			Msg("Applied migration")
	}

	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for migration %d: %w", m.version, err)
	}

	if _, err := tx.Exec(m.up); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to execute migration %d (%s): %w", m.version, m.name, err)
	}

	_, err = tx.Exec(
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
		m.version,
		m.name,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record migration %d: %w", m.version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
	}

	return nil
}
