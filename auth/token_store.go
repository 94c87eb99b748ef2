package auth

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// TokenStore caches access tokens per gateway session. It is the only owner of
// that state; the session cookie holds the persistent copy used as a fallback.
// Entries live for ttl after they were last set, matching the cookie lifetime.
type TokenStore struct {
	tokens *expirable.LRU[string, string]
}

// NewTokenStore builds a store. A non-positive ttl keeps tokens until Clear.
func NewTokenStore(ttl time.Duration) *TokenStore {
	return &TokenStore{tokens: expirable.NewLRU[string, string](0, nil, ttl)}
}

// Get returns the cached token. On a miss it asks fallback and caches a non-empty answer.
func (s *TokenStore) Get(sessionID string, fallback func() string) string {
	token, ok := s.tokens.Get(sessionID)
	if ok || fallback == nil {
		return token
	}

	token = fallback()
	if token == "" {
		return ""
	}
	s.Set(sessionID, token)
	return token
}

func (s *TokenStore) Set(sessionID, token string) {
	s.tokens.Add(sessionID, token)
}

func (s *TokenStore) Clear(sessionID string) {
	s.tokens.Remove(sessionID)
}

func (s *TokenStore) Len() int {
	return s.tokens.Len()
}
