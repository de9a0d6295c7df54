package dashboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	ActionStart      = "start"
	ActionStop       = "stop"
	ActionRunNow     = "run-now"
	ActionUpdateRuns = "update-runs"
)

// Action is one recorded control action.
type Action struct {
	ID     int64     `json:"id"`
	Kind   string    `json:"action"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"timestamp"`
}

// ActionLog stores control actions taken from the dashboard.
type ActionLog interface {
	Record(ctx context.Context, kind, detail string) error
	Recent(ctx context.Context, limit int) ([]Action, error)
	Last(ctx context.Context, kind string) (time.Time, bool, error)
	Close() error
}

// SQLiteLog keeps the action log in a sqlite database.
type SQLiteLog struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating when needed) the action database at path.
func OpenSQLite(path string) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS actions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create actions table: %w", err)
	}
	return &SQLiteLog{db: db, now: time.Now}, nil
}

func (l *SQLiteLog) Record(ctx context.Context, kind, detail string) error {
	_, err := l.db.ExecContext(ctx,
		"INSERT INTO actions (kind, detail, created_at) VALUES (?, ?, ?)",
		kind, detail, l.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record %s action: %w", kind, err)
	}
	return nil
}

func (l *SQLiteLog) Recent(ctx context.Context, limit int) ([]Action, error) {
	rows, err := l.db.QueryContext(ctx,
		"SELECT id, kind, detail, created_at FROM actions ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	actions := []Action{}
	for rows.Next() {
		var a Action
		var at string
		if err := rows.Scan(&a.ID, &a.Kind, &a.Detail, &at); err != nil {
			return nil, err
		}
		if a.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("action %d has bad timestamp %q: %w", a.ID, at, err)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

func (l *SQLiteLog) Last(ctx context.Context, kind string) (time.Time, bool, error) {
	var at string
	err := l.db.QueryRowContext(ctx,
		"SELECT created_at FROM actions WHERE kind = ? ORDER BY id DESC LIMIT 1", kind).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

func (l *SQLiteLog) Close() error {
	return l.db.Close()
}
