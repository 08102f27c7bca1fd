// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package checkpoint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/answer-engine/pkg/types"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(types.CheckpointConfig{Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreSaveLoad(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	session := &Session{
		ID: "abc-123",
		History: []types.Message{
			{Role: types.RoleUser, Content: "first question"},
			{Role: types.RoleAssistant, Content: "first answer"},
		},
	}
	require.NoError(t, store.Save(ctx, session))

	loaded, err := store.Load(ctx, "abc-123")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "abc-123", loaded.ID)
	assert.Equal(t, session.History, loaded.History)
	assert.False(t, loaded.UpdatedAt.IsZero())
}

func TestSQLiteStoreSaveReplacesHistory(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Session{
		ID:      "s",
		History: []types.Message{{Role: types.RoleUser, Content: "old"}},
	}))
	require.NoError(t, store.Save(ctx, &Session{
		ID: "s",
		History: []types.Message{
			{Role: types.RoleUser, Content: "old"},
			{Role: types.RoleAssistant, Content: "new"},
		},
	}))

	loaded, err := store.Load(ctx, "s")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Len(t, loaded.History, 2)
	assert.Equal(t, "new", loaded.History[1].Content)
}

func TestSQLiteStoreLoadMissing(t *testing.T) {
	store := newTestSQLiteStore(t)

	loaded, err := store.Load(context.Background(), "never-saved")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSQLiteStoreLoadCorrupt(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx,
		`INSERT INTO sessions (id, history, updated_at) VALUES ('bad', '{{not json', '2026-01-01T00:00:00Z')`)
	require.NoError(t, err)

	// A corrupt checkpoint reads as absent.
	loaded, err := store.Load(ctx, "bad")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSQLiteStoreRejectsEmptyID(t *testing.T) {
	store := newTestSQLiteStore(t)
	assert.Error(t, store.Save(context.Background(), &Session{}))
	assert.Error(t, store.Save(context.Background(), nil))
}
