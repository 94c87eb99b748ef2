package cart

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

// Registry keeps one Store per gateway session. A store nobody asked for
// within the idle TTL is dropped; the next request reloads it from upstream.
type Registry struct {
	api    API
	logger *zap.Logger
	opts   []Option

	mu     sync.Mutex
	stores *expirable.LRU[string, *Store]
}

// NewRegistry builds a registry. A non-positive idleTTL keeps stores until Evict.
func NewRegistry(api API, logger *zap.Logger, idleTTL time.Duration, opts ...Option) *Registry {
	logger = logger.Named("cart")
	onEvict := func(sessionID string, _ *Store) {
		logger.Debug("cart store released", zap.String("session_id", sessionID))
	}
	return &Registry{
		api:    api,
		logger: logger,
		opts:   opts,
		stores: expirable.NewLRU[string, *Store](0, onEvict, idleTTL),
	}
}

// For returns the session's store, creating an unloaded one on first use.
// Every call restarts the store's idle timer.
func (r *Registry) For(sessionID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	store, ok := r.stores.Get(sessionID)
	if !ok {
		store = NewStore(r.api, r.logger.With(zap.String("session_id", sessionID)), r.opts...)
	}
	r.stores.Add(sessionID, store)
	return store
}

func (r *Registry) Evict(sessionID string) {
	r.stores.Remove(sessionID)
}

func (r *Registry) Len() int {
	return r.stores.Len()
}
