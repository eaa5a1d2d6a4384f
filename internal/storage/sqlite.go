// Package storage provides the local SQLite archive of received telemetry
// snapshots.
package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the archive database under dataDir.
func Open(dataDir string) (*DB, error) {
	dbPath := filepath.Join(dataDir, "routerpulse.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	wrapped := &DB{DB: db}
	if err := wrapped.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return wrapped, nil
}

func (db *DB) createTables() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS interface_samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			interface TEXT NOT NULL,
			rx_mbps REAL,
			tx_mbps REAL,
			rx_bytes INTEGER,
			tx_bytes INTEGER,
			timestamp DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_interface_samples_key_ts
			ON interface_samples(interface, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_interface_samples_ts
			ON interface_samples(timestamp)`,

		`CREATE TABLE IF NOT EXISTS system_samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			hostname TEXT,
			cpu_percent REAL,
			mem_percent REAL,
			load_avg REAL,
			timestamp DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_system_samples_ts
			ON system_samples(timestamp)`,
	}

	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return fmt.Errorf("failed to execute: %s: %w", table, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.DB.Close()
}
