// Package cache holds rendered public pages so repeat visits skip the
// database. Backed by process memory by default, by Redis when
// REDIS_URL is configured.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrMiss = errors.New("cache miss")

// Store is the backend contract. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}

// Config selects and parameterizes the backend.
type Config struct {
	RedisURL   string
	Prefix     string
	DefaultTTL time.Duration
}

// New returns a Redis store when a URL is configured, an in-memory
// store otherwise.
func New(cfg Config) (Store, error) {
	if cfg.RedisURL != "" {
		return NewRedisStore(cfg.RedisURL, cfg.Prefix, cfg.DefaultTTL)
	}
	return NewMemoryStore(cfg.DefaultTTL, time.Minute), nil
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a mutex-guarded map with a janitor goroutine sweeping
// expired entries.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	defaultTTL time.Duration
	stop       chan struct{}
	stopOnce   sync.Once
}

func NewMemoryStore(defaultTTL, cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries:    make(map[string]memoryEntry),
		defaultTTL: defaultTTL,
		stop:       make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go s.janitor(cleanupInterval)
	}
	return s
}

func (s *MemoryStore) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for key, entry := range s.entries {
				if now.After(entry.expiresAt) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, ErrMiss
	}
	return entry.value, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	s.mu.Lock()
	s.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]memoryEntry)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}
