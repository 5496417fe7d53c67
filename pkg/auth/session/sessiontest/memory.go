// Package sessiontest provides an in-memory session store for handler tests.
package sessiontest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/freshmart/storefront-backend/pkg/auth/session"
	"github.com/freshmart/storefront-backend/pkg/config"
	redislib "github.com/redis/go-redis/v9"
)

// Store keeps session payloads in a map. TTLs are accepted and ignored.
type Store struct {
	mu   sync.Mutex
	data map[string]string
}

func NewStore() *Store {
	return &Store{data: make(map[string]string)}
}

func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = fmt.Sprint(value)
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return value, nil
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return nil
}

func (s *Store) SessionKey(sessionID string) string {
	return "sf:session:" + sessionID
}

// Len reports how many sessions are stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Config returns session settings suitable for tests.
func Config() config.SessionConfig {
	return config.SessionConfig{
		Secret:     "test-secret",
		Issuer:     "storefront-test",
		TTL:        time.Hour,
		CookieName: "sf_session",
	}
}

// NewManager returns a Manager over a fresh in-memory store.
func NewManager() (*session.Manager, *Store, error) {
	store := NewStore()
	manager, err := session.NewManagerWithStore(store, Config())
	if err != nil {
		return nil, nil, err
	}
	return manager, store, nil
}
