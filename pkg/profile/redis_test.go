package profile_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flagkit/flagkit/pkg/profile"
)

func newRedisStore(t *testing.T, opts ...profile.RedisOption) (*profile.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return profile.NewRedisStore(client, opts...), mr
}

func TestRedisStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("LookupMissIsNotFound", func(t *testing.T) {
		t.Parallel()
		store, _ := newRedisStore(t)
		_, err := store.Lookup(ctx, "nobody")
		assert.ErrorIs(t, err, profile.ErrNotFound)
	})

	t.Run("SaveThenLookup", func(t *testing.T) {
		t.Parallel()
		store, _ := newRedisStore(t)
		require.NoError(t, store.Save(ctx, "u1", "exp-1", "var-1"))
		require.NoError(t, store.Save(ctx, "u1", "exp-2", "var-9"))

		p, err := store.Lookup(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"exp-1": "var-1", "exp-2": "var-9"}, p.Decisions)
	})

	t.Run("LastWriteWins", func(t *testing.T) {
		t.Parallel()
		store, _ := newRedisStore(t)
		require.NoError(t, store.Save(ctx, "u1", "exp-1", "var-1"))
		require.NoError(t, store.Save(ctx, "u1", "exp-1", "var-2"))

		p, err := store.Lookup(ctx, "u1")
		require.NoError(t, err)
		v, _ := p.Variation("exp-1")
		assert.Equal(t, "var-2", v)
	})

	t.Run("KeyPrefix", func(t *testing.T) {
		t.Parallel()
		store, mr := newRedisStore(t, profile.WithKeyPrefix("custom:"))
		require.NoError(t, store.Save(ctx, "u1", "exp-1", "var-1"))
		assert.True(t, mr.Exists("custom:u1"))
	})

	t.Run("TTL", func(t *testing.T) {
		t.Parallel()
		store, mr := newRedisStore(t, profile.WithTTL(time.Minute))
		require.NoError(t, store.Save(ctx, "u1", "exp-1", "var-1"))
		assert.Equal(t, time.Minute, mr.TTL("flagkit:profile:u1"))

		mr.FastForward(2 * time.Minute)
		_, err := store.Lookup(ctx, "u1")
		assert.ErrorIs(t, err, profile.ErrNotFound)
	})

	t.Run("RejectsEmptyIdentifiers", func(t *testing.T) {
		t.Parallel()
		store, _ := newRedisStore(t)
		assert.ErrorIs(t, store.Save(ctx, "", "exp-1", "var-1"), profile.ErrInvalidProfile)
	})

	t.Run("BackendDownDegrades", func(t *testing.T) {
		t.Parallel()
		store, mr := newRedisStore(t)
		mr.Close()

		_, err := store.Lookup(ctx, "u1")
		assert.ErrorIs(t, err, profile.ErrLookupFailed)
		assert.ErrorIs(t, store.Save(ctx, "u1", "exp-1", "var-1"), profile.ErrSaveFailed)
	})
}
