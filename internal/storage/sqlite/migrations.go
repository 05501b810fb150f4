package sqlite

import "database/sql"

const schemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
    id            TEXT PRIMARY KEY,
    roll_number   TEXT NOT NULL,
    question      TEXT NOT NULL,
    outcome       TEXT NOT NULL,
    status        TEXT NOT NULL DEFAULT '',
    exit_code     INTEGER NOT NULL DEFAULT 0,
    compile_error TEXT NOT NULL DEFAULT '',
    marks         REAL NOT NULL DEFAULT 0,
    feedback      TEXT NOT NULL DEFAULT '',
    created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_results_roll ON results(roll_number);
CREATE INDEX IF NOT EXISTS idx_results_created ON results(created_at DESC);
`

func runMigrations(db *sql.DB) error {
	// Check current version
	var current int
	row := db.QueryRow("SELECT version FROM schema_version LIMIT 1")
	if err := row.Scan(&current); err != nil {
		// Table doesn't exist or is empty — run initial schema
		current = 0
	}

	if current >= schemaVersion {
		return nil
	}

	if _, err := db.Exec(schemaV1); err != nil {
		return err
	}

	if _, err := db.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return err
	}

	return nil
}
