// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pdiddy/answer-engine/pkg/types"
)

const sessionsDBFile = "sessions.db"

// SQLiteStore keeps session checkpoints in an embedded SQLite database.
// History is stored as a JSON column; the schema stays flat because
// sessions are only ever read and written whole.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens or creates the sessions database at
// cfg.Dir/sessions.db, creating the schema if needed.
func NewSQLiteStore(cfg types.CheckpointConfig, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating checkpoint directory: %w", err)
	}

	dbPath := filepath.Join(dir, sessionsDBFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening sessions database: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sessions schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		history TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`)
	return err
}

// Save upserts the session, replacing any previous checkpoint whole.
func (s *SQLiteStore) Save(ctx context.Context, session *Session) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("session id required")
	}

	history, err := json.Marshal(session.History)
	if err != nil {
		return fmt.Errorf("encoding session history: %w", err)
	}
	updated := session.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, history, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET history=excluded.history, updated_at=excluded.updated_at`,
		session.ID, string(history), updated.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving session %s: %w", session.ID, err)
	}
	return nil
}

// Load fetches a session checkpoint. Missing and corrupt rows both
// return (nil, nil).
func (s *SQLiteStore) Load(ctx context.Context, id string) (*Session, error) {
	var historyJSON, updatedStr string
	err := s.db.QueryRowContext(ctx,
		`SELECT history, updated_at FROM sessions WHERE id = ?`, id,
	).Scan(&historyJSON, &updatedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}

	var history []types.Message
	if err := json.Unmarshal([]byte(historyJSON), &history); err != nil {
		s.logger.Warn("discarding corrupt session checkpoint",
			zap.String("session", id), zap.Error(err))
		return nil, nil
	}

	session := &Session{ID: id, History: history}
	if ts, err := time.Parse(time.RFC3339Nano, updatedStr); err == nil {
		session.UpdatedAt = ts
	}
	return session, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
