package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStore_SetGet(t *testing.T) {
	store := NewMemoryStore(time.Minute)

	store.Set("k", 42, time.Minute)

	v, ok := store.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestMemoryStore_Expired(t *testing.T) {
	store := NewMemoryStore(time.Minute)

	store.Set("k", "v", -time.Second)

	_, ok := store.Get("k")
	assert.False(t, ok)
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore(time.Minute)

	store.Set("k", "v", time.Minute)
	store.Delete("k")

	_, ok := store.Get("k")
	assert.False(t, ok)
}

func TestMemoryStore_Missing(t *testing.T) {
	store := NewMemoryStore(time.Minute)

	_, ok := store.Get("nope")
	assert.False(t, ok)
}
