// Package ephemeral holds short-lived per-session values that are read once.
package ephemeral

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrNotFound = errors.New("ephemeral value not found")

// Store keeps one value per key. Take returns the value and deletes it.
type Store interface {
	Put(ctx context.Context, key string, value []byte) error
	Take(ctx context.Context, key string) ([]byte, error)
}

// SessionKey scopes a fixed key to one gateway session.
func SessionKey(sessionID, name string) string {
	return fmt.Sprintf("session:%s:%s", sessionID, name)
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is the in-process Store used when no Redis address is configured.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

func (s *MemoryStore) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, k)
		}
	}
	s.entries[key] = entry{value: append([]byte(nil), value...), expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Take(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.entries, key)
	if s.expired(e, s.now()) {
		return nil, ErrNotFound
	}
	return e.value, nil
}

func (s *MemoryStore) expired(e entry, now time.Time) bool {
	return s.ttl > 0 && now.After(e.expiresAt)
}
