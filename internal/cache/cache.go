package cache

import (
	"sync"
	"time"
)

// Store is a key-value cache with per-entry TTL. Call sites depend on this
// interface so a multi-instance deployment can swap in a shared backing store.
type Store interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Delete(key string)
}

type item struct {
	value     any
	expiresAt int64
}

type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]item
	done  chan struct{}
}

// NewMemoryStore returns an in-process Store. cleanupInterval controls how
// often expired entries are swept out; readers never see expired values
// regardless of sweep timing.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		items: make(map[string]item),
		done:  make(chan struct{}),
	}

	go s.gc(cleanupInterval)

	return s
}

func (s *MemoryStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[key]
	if !ok {
		return nil, false
	}

	if time.Now().UnixNano() > it.expiresAt {
		return nil, false
	}

	return it.value, true
}

func (s *MemoryStore) Set(key string, value any, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = item{
		value:     value,
		expiresAt: time.Now().Add(ttl).UnixNano(),
	}
}

func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
}

// Close stops the background sweeper.
func (s *MemoryStore) Close() {
	close(s.done)
}

func (s *MemoryStore) gc(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}

		now := time.Now().UnixNano()

		s.mu.Lock()
		for key, it := range s.items {
			if now > it.expiresAt {
				delete(s.items, key)
			}
		}
		s.mu.Unlock()
	}
}
