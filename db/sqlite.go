package db

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/brettboylen/reddit-lookup/models"
)

// Database is the SQLite-backed lookup-usage journal. Only lookup metadata
// goes in here: kind, target, outcome and timing. Credentials and upstream
// response bodies are never written, so nothing in this file can turn into a
// credential store or a lookup cache.
type Database struct {
	db    *sql.DB
	mutex sync.RWMutex
	log   *logrus.Logger
}

// NewDatabase opens (or creates) the journal at dbPath
func NewDatabase(dbPath string, log *logrus.Logger) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &Database{
		db:  db,
		log: log,
	}

	if err := database.initTables(); err != nil {
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return database, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.db.Close()
}

// initTables creates the necessary tables if they don't exist
func (d *Database) initTables() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	// note: in an ideal world, this would be a migration that we could just run once per environment (ie dev, staging, prod)
	query := `
	CREATE TABLE IF NOT EXISTS lookups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		target TEXT NOT NULL,
		status TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_lookups_kind ON lookups(kind);
	CREATE INDEX IF NOT EXISTS idx_lookups_status ON lookups(status);
	`

	_, err := d.db.Exec(query)
	return err
}

// RecordLookup appends one lookup record to the journal
func (d *Database) RecordLookup(rec models.LookupRecord) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	query := `
	INSERT INTO lookups (kind, target, status, duration_ms, created_at)
	VALUES (?, ?, ?, ?, ?)
	`

	_, err := d.db.Exec(
		query,
		rec.Kind, rec.Target, rec.Status, rec.DurationMS,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record lookup: %w", err)
	}

	return nil
}

// GetUsageStats summarizes the journal: total lookups, counts per kind and
// per status, and the time of the most recent lookup
func (d *Database) GetUsageStats() (*models.UsageStats, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	stats := &models.UsageStats{
		LookupsByKind:   make(map[string]int),
		LookupsByStatus: make(map[string]int),
	}

	if err := d.db.QueryRow("SELECT COUNT(*) FROM lookups").Scan(&stats.TotalLookups); err != nil {
		return nil, fmt.Errorf("failed to count lookups: %w", err)
	}

	byKind, err := d.countBy("kind")
	if err != nil {
		return nil, err
	}
	stats.LookupsByKind = byKind

	byStatus, err := d.countBy("status")
	if err != nil {
		return nil, err
	}
	stats.LookupsByStatus = byStatus

	var last sql.NullString
	if err := d.db.QueryRow("SELECT MAX(created_at) FROM lookups").Scan(&last); err != nil {
		return nil, fmt.Errorf("failed to query last lookup time: %w", err)
	}
	if last.Valid {
		if ts, err := time.Parse(time.RFC3339Nano, last.String); err == nil {
			stats.LastLookupAt = &ts
		}
	}

	return stats, nil
}

// countBy groups the journal rows by the given column. The column name comes
// from a fixed internal set, never from caller input.
func (d *Database) countBy(column string) (map[string]int, error) {
	query := fmt.Sprintf(`
	SELECT %s, COUNT(*) as lookup_count
	FROM lookups
	GROUP BY %s
	`, column, column)

	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query lookups by %s: %w", column, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var count int

		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("failed to scan lookup count: %w", err)
		}

		counts[key] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return counts, nil
}
