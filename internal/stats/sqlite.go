package stats

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema (action_stats table)
const currentSchemaVersion = 1

// Store is a SQLite-backed Recorder. It lets success statistics survive
// process restarts so the transition predictor keeps its history across
// planning sessions.
//
// Uses WAL mode for concurrent read access; writes are serialized through
// a single connection, and each Record runs its read-modify-write inside
// one transaction, so per-key updates are atomic.
type Store struct {
	db     *sql.DB
	weight float64
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreWeight overrides the EMA weight. Must be in (0,1].
func WithStoreWeight(w float64) StoreOption {
	return func(s *Store) {
		s.weight = w
	}
}

// Open creates or opens a statistics database at the given path. Applies
// required pragmas and the schema automatically; idempotent.
func Open(path string, opts ...StoreOption) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("stats: open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("stats: connect: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("stats: apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("stats: apply schema: %w", err)
	}

	s := &Store{db: db, weight: DefaultWeight}
	for _, opt := range opts {
		opt(s)
	}
	if s.weight <= 0 || s.weight > 1 {
		db.Close()
		return nil, fmt.Errorf("stats: EMA weight must be in (0,1], got %v", s.weight)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Rate implements Recorder.
func (s *Store) Rate(actionID string) (float64, bool) {
	var rate float64
	err := s.db.QueryRow(
		`SELECT rate FROM action_stats WHERE action_id = ?`, actionID,
	).Scan(&rate)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false
	}
	if err != nil {
		// Recorder lookups are advisory; a read failure degrades to
		// "no history" rather than failing the planning request.
		return 0, false
	}
	return rate, true
}

// Record implements Recorder. The read-modify-write is transactional, so
// concurrent recorders on the same database cannot interleave updates for
// a key.
func (s *Store) Record(actionID string, success bool) error {
	outcome := 0.0
	if success {
		outcome = 1.0
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("stats: begin record: %w", err)
	}
	defer tx.Rollback()

	var rate float64
	var samples int
	err = tx.QueryRow(
		`SELECT rate, samples FROM action_stats WHERE action_id = ?`, actionID,
	).Scan(&rate, &samples)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		rate, samples = outcome, 1
	case err != nil:
		return fmt.Errorf("stats: read %q: %w", actionID, err)
	default:
		rate += s.weight * (outcome - rate)
		samples++
	}

	if _, err := tx.Exec(
		`INSERT INTO action_stats (action_id, rate, samples) VALUES (?, ?, ?)
		 ON CONFLICT(action_id) DO UPDATE SET rate = excluded.rate, samples = excluded.samples`,
		actionID, rate, samples,
	); err != nil {
		return fmt.Errorf("stats: write %q: %w", actionID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("stats: commit %q: %w", actionID, err)
	}
	return nil
}

// Reset implements Recorder: explicit clear, never implicit.
func (s *Store) Reset() error {
	if _, err := s.db.Exec(`DELETE FROM action_stats`); err != nil {
		return fmt.Errorf("stats: reset: %w", err)
	}
	return nil
}

// Row is one action's persisted statistics.
type Row struct {
	ActionID string
	Rate     float64
	Samples  int
}

// All returns every persisted row ordered by action id. Used by the stats
// CLI.
func (s *Store) All() ([]Row, error) {
	rows, err := s.db.Query(`SELECT action_id, rate, samples FROM action_stats ORDER BY action_id`)
	if err != nil {
		return nil, fmt.Errorf("stats: list: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ActionID, &r.Rate, &r.Samples); err != nil {
			return nil, fmt.Errorf("stats: scan: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and stamps the schema
// version. Idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}
