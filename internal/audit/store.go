package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"apartadmin/internal/events"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// Entry is one recorded admin action.
type Entry struct {
	ID        int64     `json:"id"`
	EventType string    `json:"eventType"`
	Payload   string    `json:"payload"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store appends every committed mutation to a local sqlite file so there
// is a trail of who changed what, independent of the remote backend.
type Store struct {
	db     *sql.DB
	logger *zerolog.Logger
}

// Open creates (if needed) and opens the audit database.
func Open(path string, logger *zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to audit database: %w", err)
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS audit_log (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		payload    TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_created_at ON audit_log(created_at);`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create audit schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Record appends one entry.
func (s *Store) Record(ctx context.Context, eventType string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (event_type, payload, created_at) VALUES (?, ?, ?)`,
		eventType, string(payload), time.Now().UTC())
	return err
}

// List returns the most recent entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_type, payload, created_at FROM audit_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Attach subscribes the store to every event on the bus.
func (s *Store) Attach(bus *events.EventBus) {
	bus.Subscribe("", func(ev events.Event) error {
		if err := s.Record(context.Background(), ev.Type, ev.Payload); err != nil {
			s.logger.Error().Err(err).Str("event", ev.Type).Msg("failed to record audit entry")
			return err
		}
		return nil
	})
}

// DeleteOlderThan removes entries past the retention window; returns the
// number of deleted rows.
func (s *Store) DeleteOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	res, err := s.db.ExecContext(ctx, `DELETE FROM audit_log WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
