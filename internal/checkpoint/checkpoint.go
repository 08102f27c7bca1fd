// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package checkpoint persists per-session conversation state so a
// follow-up question can resume with full history. Two backends are
// provided: an embedded SQLite database and Redis with expiring keys.
package checkpoint

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// Session is one persisted conversation checkpoint.
type Session struct {
	ID        string          `json:"id"`
	History   []types.Message `json:"history"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Store saves and loads session checkpoints. Load returns (nil, nil)
// when a session is absent or its stored state is unreadable; a corrupt
// checkpoint is treated the same as a missing one so a bad record can
// never block a new conversation.
type Store interface {
	Save(ctx context.Context, session *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Close() error
}

// New builds the store selected by cfg.Backend. An empty backend
// defaults to SQLite.
func New(cfg types.CheckpointConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case types.CheckpointRedis:
		return NewRedisStore(cfg, logger)
	case types.CheckpointSQLite, "":
		return NewSQLiteStore(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown checkpoint backend %q", cfg.Backend)
	}
}
