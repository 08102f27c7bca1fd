// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package checkpoint

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/answer-engine/pkg/types"
)

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(types.CheckpointConfig{
		Backend:   types.CheckpointRedis,
		RedisAddr: mr.Addr(),
		TTL:       ttl,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestRedisStoreSaveLoad(t *testing.T) {
	store, _ := newTestRedisStore(t, 0)
	ctx := context.Background()

	session := &Session{
		ID:      "r-1",
		History: []types.Message{{Role: types.RoleUser, Content: "hello"}},
	}
	require.NoError(t, store.Save(ctx, session))

	loaded, err := store.Load(ctx, "r-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, session.History, loaded.History)
	assert.False(t, loaded.UpdatedAt.IsZero())
}

func TestRedisStoreSetsTTL(t *testing.T) {
	store, mr := newTestRedisStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Session{ID: "r-2"}))
	assert.Equal(t, time.Hour, mr.TTL("session:r-2"))

	// Sessions expire on their own.
	mr.FastForward(2 * time.Hour)
	loaded, err := store.Load(ctx, "r-2")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStoreLoadMissing(t *testing.T) {
	store, _ := newTestRedisStore(t, 0)

	loaded, err := store.Load(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStoreLoadCorrupt(t *testing.T) {
	store, mr := newTestRedisStore(t, 0)
	require.NoError(t, mr.Set("session:bad", "{{not json"))

	loaded, err := store.Load(context.Background(), "bad")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStoreUnreachable(t *testing.T) {
	_, err := NewRedisStore(types.CheckpointConfig{RedisAddr: "127.0.0.1:1"}, nil)
	assert.Error(t, err)
}

func TestNewSelectsBackend(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := New(types.CheckpointConfig{
		Backend:   types.CheckpointRedis,
		RedisAddr: mr.Addr(),
	}, nil)
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, store)
	store.Close()

	store, err = New(types.CheckpointConfig{Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)
	store.Close()

	_, err = New(types.CheckpointConfig{Backend: "dynamodb"}, nil)
	assert.Error(t, err)
}
