package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStore_SetGet(t *testing.T) {
	store := NewMemoryStore(time.Minute, 0)
	defer store.Close()

	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	assert.NoError(t, store.Set(ctx, "page:/blog", []byte("<html>list</html>"), 0))

	value, err := store.Get(ctx, "page:/blog")
	assert.NoError(t, err)
	assert.Equal(t, []byte("<html>list</html>"), value)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(time.Minute, 0)
	defer store.Close()

	ctx := context.Background()

	assert.NoError(t, store.Set(ctx, "short", []byte("v"), 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	_, err := store.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStore_DeleteAndClear(t *testing.T) {
	store := NewMemoryStore(time.Minute, 0)
	defer store.Close()

	ctx := context.Background()

	store.Set(ctx, "a", []byte("1"), 0)
	store.Set(ctx, "b", []byte("2"), 0)

	assert.NoError(t, store.Delete(ctx, "a"))
	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)

	assert.NoError(t, store.Clear(ctx))
	_, err = store.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStore_CloseTwice(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Millisecond)
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestNew_DefaultsToMemory(t *testing.T) {
	store, err := New(Config{DefaultTTL: time.Minute})
	assert.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &MemoryStore{}, store)
}
