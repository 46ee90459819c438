package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/recipe-api/internal/auth"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestRedisSessionStore_CreateGetRevoke(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	store := auth.NewRedisSessionStore(client)

	sessionID, err := store.Create(ctx, 7, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, sessionID)

	userID, err := store.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), userID)

	members, err := mr.Members("user_sessions:7")
	require.NoError(t, err)
	assert.Equal(t, []string{sessionID}, members)

	require.NoError(t, store.Revoke(ctx, sessionID))

	_, err = store.Get(ctx, sessionID)
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)

	err = store.Revoke(ctx, sessionID)
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
}

func TestRedisSessionStore_Expires(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	store := auth.NewRedisSessionStore(client)

	sessionID, err := store.Create(ctx, 1, time.Minute)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = store.Get(ctx, sessionID)
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
}

func TestRedisSessionStore_RejectsNonPositiveTTL(t *testing.T) {
	_, client := newRedis(t)
	store := auth.NewRedisSessionStore(client)

	_, err := store.Create(context.Background(), 1, 0)
	assert.Error(t, err)
}

func TestRedisSessionStore_RevokeAll(t *testing.T) {
	ctx := context.Background()
	_, client := newRedis(t)
	store := auth.NewRedisSessionStore(client)

	first, err := store.Create(ctx, 3, time.Hour)
	require.NoError(t, err)
	second, err := store.Create(ctx, 3, time.Hour)
	require.NoError(t, err)
	unrelated, err := store.Create(ctx, 4, time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.RevokeAll(ctx, 3))

	for _, id := range []string{first, second} {
		_, err := store.Get(ctx, id)
		assert.ErrorIs(t, err, auth.ErrSessionNotFound)
	}

	userID, err := store.Get(ctx, unrelated)
	require.NoError(t, err)
	assert.Equal(t, int64(4), userID)

	// nothing left to revoke is not an error
	require.NoError(t, store.RevokeAll(ctx, 3))
}

func TestRedisSessionStore_RevokeOthers(t *testing.T) {
	ctx := context.Background()
	_, client := newRedis(t)
	store := auth.NewRedisSessionStore(client)

	keep, err := store.Create(ctx, 5, time.Hour)
	require.NoError(t, err)
	drop, err := store.Create(ctx, 5, time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.RevokeOthers(ctx, 5, keep))

	_, err = store.Get(ctx, keep)
	require.NoError(t, err)

	_, err = store.Get(ctx, drop)
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
}

func TestRedisSessionStore_RevokeKeepsSiblingSessions(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	store := auth.NewRedisSessionStore(client)

	first, err := store.Create(ctx, 9, time.Hour)
	require.NoError(t, err)
	second, err := store.Create(ctx, 9, time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.Revoke(ctx, first))

	assert.False(t, mr.Exists("session:"+first))
	members, err := mr.Members("user_sessions:9")
	require.NoError(t, err)
	assert.Equal(t, []string{second}, members)

	userID, err := store.Get(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, int64(9), userID)
}

func TestRedisSessionStore_RevokeAfterRevokeAll(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	store := auth.NewRedisSessionStore(client)

	sessionID, err := store.Create(ctx, 11, time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.RevokeAll(ctx, 11))

	err = store.Revoke(ctx, sessionID)
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
	assert.False(t, mr.Exists("user_sessions:11"))
}
