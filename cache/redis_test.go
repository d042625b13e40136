package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
)

func setupRedisStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	server := miniredis.RunT(t)

	store, err := NewRedisStore("redis://"+server.Addr(), "driftwood:", time.Minute)
	assert.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return server, store
}

func TestRedisStore_SetGet(t *testing.T) {
	_, store := setupRedisStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	assert.NoError(t, store.Set(ctx, "page:/blog", []byte("<html>list</html>"), 0))

	value, err := store.Get(ctx, "page:/blog")
	assert.NoError(t, err)
	assert.Equal(t, []byte("<html>list</html>"), value)
}

func TestRedisStore_KeysArePrefixed(t *testing.T) {
	server, store := setupRedisStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Set(ctx, "page:/blog", []byte("v"), 0))
	assert.True(t, server.Exists("driftwood:page:/blog"))
}

func TestRedisStore_Expiry(t *testing.T) {
	server, store := setupRedisStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Set(ctx, "short", []byte("v"), time.Second))
	server.FastForward(2 * time.Second)

	_, err := store.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisStore_ClearOnlyTouchesPrefix(t *testing.T) {
	server, store := setupRedisStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Set(ctx, "page:/blog", []byte("v"), 0))
	server.Set("other-app:key", "value")

	assert.NoError(t, store.Clear(ctx))

	_, err := store.Get(ctx, "page:/blog")
	assert.ErrorIs(t, err, ErrMiss)
	assert.True(t, server.Exists("other-app:key"))
}

func TestNewRedisStore_BadURL(t *testing.T) {
	_, err := NewRedisStore("not-a-url", "p:", time.Minute)
	assert.Error(t, err)
}
