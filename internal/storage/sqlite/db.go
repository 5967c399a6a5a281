package sqlite

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// InitDB opens (creating if needed) the sqlite database and applies the
// schema.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS comments (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		text       TEXT NOT NULL,
		author     TEXT DEFAULT '',
		source     TEXT NOT NULL DEFAULT '',
		source_ref TEXT DEFAULT '',
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_comments_source ON comments(source);

	CREATE TABLE IF NOT EXISTS checkpoints (
		category        TEXT NOT NULL,
		target_positive INTEGER NOT NULL,
		target_negative INTEGER NOT NULL,
		count_positive  INTEGER NOT NULL,
		count_negative  INTEGER NOT NULL,
		payload         TEXT NOT NULL,
		updated_at      DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (category, target_positive, target_negative)
	);

	CREATE TABLE IF NOT EXISTS scan_runs (
		id              TEXT PRIMARY KEY,
		category        TEXT NOT NULL,
		target_positive INTEGER NOT NULL,
		target_negative INTEGER NOT NULL,
		count_positive  INTEGER NOT NULL,
		count_negative  INTEGER NOT NULL,
		processed       INTEGER NOT NULL,
		satisfied       INTEGER NOT NULL,
		output_path     TEXT DEFAULT '',
		finished_at     DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_scan_runs_category ON scan_runs(category);

	CREATE TABLE IF NOT EXISTS battle_runs (
		id          TEXT PRIMARY KEY,
		side_a      TEXT NOT NULL,
		side_b      TEXT NOT NULL,
		winner      TEXT NOT NULL,
		summary     TEXT DEFAULT '',
		payload     TEXT NOT NULL,
		output_path TEXT DEFAULT '',
		finished_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return db, nil
}
