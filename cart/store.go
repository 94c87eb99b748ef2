package cart

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"snack-gateway/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LocalIDPrefix marks lines that exist only in the gateway and not upstream.
const LocalIDPrefix = "local-"

const removeConcurrency = 4

var (
	ErrAddFailed       = errors.New("add to cart failed")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// SoftError reports an upstream failure after which the local cart was changed anyway.
type SoftError struct {
	Op  string
	Err error
}

func (e *SoftError) Error() string {
	return fmt.Sprintf("%s applied locally only: %v", e.Op, e.Err)
}

func (e *SoftError) Unwrap() error {
	return e.Err
}

// API is the upstream cart resource.
type API interface {
	FetchCart(ctx context.Context) ([]models.CartLine, error)
	AddCartItem(ctx context.Context, req models.AddCartItemRequest) ([]models.CartLine, error)
	UpdateCartItem(ctx context.Context, itemID string, quantity int) ([]models.CartLine, error)
	DeleteCartItem(ctx context.Context, itemID string) ([]models.CartLine, error)
	ClearCart(ctx context.Context) error
}

// Store is the single in-memory source of truth for one user's cart.
//
// Every successful upstream call replaces the local lines with the server's
// answer. Each call takes a ticket when it starts; an answer carrying a ticket
// older than the last applied one is dropped, so a slow response can never
// overwrite a newer one.
type Store struct {
	api     API
	logger  *zap.Logger
	isLocal func(id string) bool

	mu      sync.Mutex
	lines   []models.CartLine
	loaded  bool
	issued  uint64
	applied uint64
}

type Option func(*Store)

// WithLocalIDs overrides how local stand-in lines are recognised.
func WithLocalIDs(isLocal func(id string) bool) Option {
	return func(s *Store) {
		s.isLocal = isLocal
	}
}

func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

func NewStore(api API, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		api:     api,
		logger:  logger,
		isLocal: IsLocalID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// apply runs fn on the current lines unless a newer call already landed.
func (s *Store) apply(ticket uint64, fn func([]models.CartLine) []models.CartLine) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket < s.applied {
		s.logger.Debug("dropping stale cart response", zap.Uint64("ticket", ticket), zap.Uint64("applied", s.applied))
		return false
	}
	s.applied = ticket
	s.lines = fn(slices.Clone(s.lines))
	return true
}

func (s *Store) replace(ticket uint64, lines []models.CartLine) bool {
	return s.apply(ticket, func([]models.CartLine) []models.CartLine {
		return slices.Clone(lines)
	})
}

func without(ids ...string) func([]models.CartLine) []models.CartLine {
	return func(lines []models.CartLine) []models.CartLine {
		return slices.DeleteFunc(lines, func(l models.CartLine) bool {
			return slices.Contains(ids, l.ID)
		})
	}
}

// Lines returns a copy of the current cart.
func (s *Store) Lines() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.lines)
}

// Count is the total quantity shown on the header badge.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, l := range s.lines {
		count += l.Quantity
	}
	return count
}

// Loaded reports whether the first load finished, whatever its outcome.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Load fetches the upstream cart. On failure only local stand-in lines survive.
func (s *Store) Load(ctx context.Context) error {
	ticket := s.begin()
	lines, err := s.api.FetchCart(ctx)

	defer func() {
		s.mu.Lock()
		s.loaded = true
		s.mu.Unlock()
	}()

	if err != nil {
		s.logger.Warn("failed to load cart, falling back to local lines", zap.Error(err))
		s.apply(ticket, func(current []models.CartLine) []models.CartLine {
			return slices.DeleteFunc(current, func(l models.CartLine) bool { return !s.isLocal(l.ID) })
		})
		return fmt.Errorf("failed to load cart: %w", err)
	}
	s.replace(ticket, lines)
	return nil
}

// Refresh re-reads the upstream cart and keeps the current lines on failure.
func (s *Store) Refresh(ctx context.Context) error {
	ticket := s.begin()
	lines, err := s.api.FetchCart(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh cart: %w", err)
	}
	s.replace(ticket, lines)
	s.mu.Lock()
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Sync loads the cart on first use and refreshes it afterwards.
func (s *Store) Sync(ctx context.Context) error {
	if !s.Loaded() {
		return s.Load(ctx)
	}
	return s.Refresh(ctx)
}

// Add puts quantity of itemID in the cart. A failed add never changes local state.
func (s *Store) Add(ctx context.Context, itemID string, quantity int, snapshot models.ItemSnapshot) ([]models.CartLine, error) {
	if quantity < 1 {
		return s.Lines(), ErrInvalidQuantity
	}

	ticket := s.begin()
	lines, err := s.api.AddCartItem(ctx, models.AddCartItemRequest{
		ItemID:   itemID,
		Quantity: quantity,
		Title:    snapshot.Title,
		Price:    snapshot.Price,
		Image:    snapshot.Image,
	})
	if err != nil {
		return s.Lines(), fmt.Errorf("%w: %w", ErrAddFailed, err)
	}

	// The upstream does not always echo product fields.
	for i := range lines {
		if lines[i].ID != itemID {
			continue
		}
		if lines[i].Title == "" {
			lines[i].Title = snapshot.Title
		}
		if lines[i].Price == 0 {
			lines[i].Price = snapshot.Price
		}
		if lines[i].Image == "" {
			lines[i].Image = snapshot.Image
		}
	}

	s.replace(ticket, lines)
	s.logger.Debug("item added to cart", zap.String("item_id", itemID), zap.Int("quantity", quantity))
	return s.Lines(), nil
}

// UpdateQuantity sets the quantity of a line. A quantity below 1 removes it.
func (s *Store) UpdateQuantity(ctx context.Context, itemID string, quantity int) ([]models.CartLine, error) {
	if quantity < 1 {
		return s.Remove(ctx, itemID)
	}

	ticket := s.begin()
	lines, err := s.api.UpdateCartItem(ctx, itemID, quantity)
	if err != nil {
		if !s.isLocal(itemID) {
			return s.Lines(), fmt.Errorf("failed to update quantity: %w", err)
		}
		s.apply(ticket, func(current []models.CartLine) []models.CartLine {
			for i := range current {
				if current[i].ID == itemID {
					current[i].Quantity = quantity
				}
			}
			return current
		})
		return s.Lines(), nil
	}

	s.replace(ticket, lines)
	return s.Lines(), nil
}

// Remove deletes a line. On upstream failure the line is still removed locally
// and a *SoftError is returned. If a newer call landed first the local cart is
// left alone and the plain upstream error is returned.
func (s *Store) Remove(ctx context.Context, itemID string) ([]models.CartLine, error) {
	ticket := s.begin()
	lines, err := s.api.DeleteCartItem(ctx, itemID)
	if err != nil {
		if !s.apply(ticket, without(itemID)) {
			return s.Lines(), fmt.Errorf("failed to remove %s: %w", itemID, err)
		}
		return s.Lines(), &SoftError{Op: "remove", Err: err}
	}

	s.replace(ticket, lines)
	return s.Lines(), nil
}

// RemoveAll empties the cart. The local cart ends up empty even if the upstream fails.
func (s *Store) RemoveAll(ctx context.Context) error {
	ticket := s.begin()
	err := s.api.ClearCart(ctx)

	s.mu.Lock()
	s.lines = nil
	s.applied = max(s.applied, ticket)
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// RemoveSelected deletes the given lines concurrently and then re-reads the cart
// once. If any step fails the ids are filtered out locally and a *SoftError is returned.
func (s *Store) RemoveSelected(ctx context.Context, ids []string) ([]models.CartLine, error) {
	if len(ids) == 0 {
		return s.Lines(), nil
	}

	ticket := s.begin()
	var g errgroup.Group
	g.SetLimit(removeConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			if _, err := s.api.DeleteCartItem(ctx, id); err != nil {
				return fmt.Errorf("delete %s: %w", id, err)
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		var lines []models.CartLine
		if lines, err = s.api.FetchCart(ctx); err == nil {
			s.replace(ticket, lines)
			return s.Lines(), nil
		}
	}

	s.logger.Warn("bulk cart removal failed, filtering locally", zap.Strings("item_ids", ids), zap.Error(err))
	s.apply(ticket, without(ids...))
	return s.Lines(), &SoftError{Op: "remove selected", Err: err}
}
