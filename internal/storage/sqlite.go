package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/taxpilot-ai/taxpilot/internal/common"
	"github.com/taxpilot-ai/taxpilot/internal/model"
)

// SQLiteStore implements SessionStore using SQLite. Sessions are stored as
// JSON snapshots keyed by session id. The single connection serializes all
// reads and writes, which also serializes turns per session key.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (or creates) the session database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db, dbPath: dbPath}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		needs_review INTEGER NOT NULL DEFAULT 0,
		completed INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get loads the session snapshot, or a fresh intake-stage state when the
// session is unknown.
func (s *SQLiteStore) Get(ctx context.Context, sessionID string) (model.Return, error) {
	if err := validateContext(ctx); err != nil {
		return model.Return{}, err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return model.Return{}, err
	}

	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM sessions WHERE session_id = ?`, sessionID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NewReturn(sessionID), nil
	}
	if err != nil {
		return model.Return{}, fmt.Errorf("failed to load session: %w", err)
	}

	var state model.Return
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return model.Return{}, fmt.Errorf("failed to decode session snapshot: %w", err)
	}
	return state, nil
}

// Put stores the full snapshot, replacing any prior state for the session.
func (s *SQLiteStore) Put(ctx context.Context, state model.Return) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(state.SessionID, "state.SessionID"); err != nil {
		return err
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, state, needs_review, completed, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(session_id) DO UPDATE SET
			state = excluded.state,
			needs_review = excluded.needs_review,
			completed = excluded.completed,
			updated_at = CURRENT_TIMESTAMP`,
		state.SessionID, string(raw), boolToInt(state.NeedsReview), boolToInt(state.Completed))
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// List returns all stored session snapshots, most recently updated first.
func (s *SQLiteStore) List(ctx context.Context) ([]model.Return, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT state FROM sessions ORDER BY updated_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var states []model.Return
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		var state model.Return
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			return nil, fmt.Errorf("failed to decode session snapshot: %w", err)
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return states, nil
}

// Delete removes a session. Deleting an unknown session is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, sessionID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", common.ErrSessionNotFound, sessionID)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
