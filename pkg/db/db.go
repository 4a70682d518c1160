package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Register driver
)

// DB wraps the sql.DB connection.
type DB struct {
	*sql.DB
}

// Init opens the database and runs migrations.
func Init(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	// WAL lets the API read history while the controller records commands
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=30000;"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	d := &DB{db}
	// Single connection avoids SQLITE_BUSY on concurrent writes
	db.SetMaxOpenConns(1)

	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return d, nil
}

// PruneCommands removes rotator command history older than the specified duration.
// It returns the number of rows removed.
func (d *DB) PruneCommands(olderThan time.Duration) (int64, error) {
	deadline := time.Now().Add(-olderThan).UTC()
	res, err := d.Exec("DELETE FROM rotator_commands WHERE issued_at < ?", deadline)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (d *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS qso (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			call TEXT NOT NULL,
			grid TEXT,
			band TEXT,
			mode TEXT,
			freq_mhz REAL,
			lat REAL,
			lon REAL,
			has_position BOOLEAN DEFAULT 0,
			qso_time DATETIME,
			fields TEXT,
			imported_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(call, qso_time, band, mode)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_qso_time ON qso(qso_time);`,
		`CREATE TABLE IF NOT EXISTS rotator_commands (
			id TEXT PRIMARY KEY,
			bearing REAL NOT NULL,
			source TEXT,
			issued_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_rotator_commands_issued ON rotator_commands(issued_at);`,
		`CREATE TABLE IF NOT EXISTS persistent_state (
			key TEXT PRIMARY KEY,
			value TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
	}

	for _, q := range queries {
		if _, err := d.Exec(q); err != nil {
			return fmt.Errorf("exec error: %w query: %s", err, q)
		}
	}

	return nil
}
