package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, ttl), s
}

func TestSaveAndLookup(t *testing.T) {
	store, s := setupTestRedis(t, time.Hour)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, store.Save(ctx, "hash-1", userID))
	assert.True(t, s.Exists("refresh:hash-1"))
	assert.Equal(t, time.Hour, s.TTL("refresh:hash-1"))

	got, err := store.Lookup(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestLookupExpired(t *testing.T) {
	store, s := setupTestRedis(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "short", uuid.New()))
	s.FastForward(2 * time.Minute)

	_, err := store.Lookup(ctx, "short")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRotateIsSingleUse(t *testing.T) {
	store, _ := setupTestRedis(t, time.Hour)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, store.Save(ctx, "old", userID))

	got, err := store.Rotate(ctx, "old", "new")
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	_, err = store.Rotate(ctx, "old", "newer")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err = store.Lookup(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestRevoke(t *testing.T) {
	store, _ := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "gone", uuid.New()))
	require.NoError(t, store.Revoke(ctx, "gone"))
	require.NoError(t, store.Revoke(ctx, "never-existed"))

	_, err := store.Lookup(ctx, "gone")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPing(t *testing.T) {
	store, s := setupTestRedis(t, time.Hour)
	require.NoError(t, store.Ping(context.Background()))

	s.Close()
	assert.Error(t, store.Ping(context.Background()))
}
