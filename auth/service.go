package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"snack-gateway/clients"
	"snack-gateway/models"
	"snack-gateway/validators"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

var ErrNotLoggedIn = errors.New("not logged in")

// API is the slice of the upstream client the session holder needs.
type API interface {
	Login(ctx context.Context, email, password string) (models.AuthResult, error)
	Register(ctx context.Context, req models.RegisterRequest) (models.AuthResult, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (models.User, error)
}

// Service is the auth session holder. It owns the current user and token of every session.
// A cached user is re-read from the upstream once userTTL has passed.
type Service struct {
	api    API
	tokens *TokenStore
	logger *zap.Logger
	users  *expirable.LRU[string, models.User]
}

func NewService(api API, tokens *TokenStore, userTTL time.Duration, logger *zap.Logger) *Service {
	return &Service{
		api:    api,
		tokens: tokens,
		logger: logger.Named("auth"),
		users:  expirable.NewLRU[string, models.User](0, nil, userTTL),
	}
}

func (s *Service) Tokens() *TokenStore {
	return s.tokens
}

// Login validates input locally, then delegates to the upstream and caches the token.
func (s *Service) Login(ctx context.Context, sessionID, email, password string) (models.AuthResult, error) {
	if err := validators.ValidateLogin(email, password); err != nil {
		return models.AuthResult{}, err
	}

	result, err := s.api.Login(ctx, email, password)
	if err != nil {
		return models.AuthResult{}, fmt.Errorf("login failed: %w", err)
	}
	s.remember(sessionID, result)
	s.logger.Info("user logged in", zap.String("session_id", sessionID), zap.String("user_id", result.User.ID))
	return result, nil
}

func (s *Service) Register(ctx context.Context, sessionID string, req models.RegisterRequest) (models.AuthResult, error) {
	if err := validators.ValidateRegistration(req.Email, req.Password, req.PasswordConfirm, req.Nickname); err != nil {
		return models.AuthResult{}, err
	}

	result, err := s.api.Register(ctx, req)
	if err != nil {
		return models.AuthResult{}, fmt.Errorf("register failed: %w", err)
	}
	s.remember(sessionID, result)
	s.logger.Info("user registered", zap.String("session_id", sessionID), zap.String("user_id", result.User.ID))
	return result, nil
}

func (s *Service) remember(sessionID string, result models.AuthResult) {
	s.tokens.Set(sessionID, result.AccessToken)
	if result.User.ID != "" {
		s.users.Add(sessionID, result.User)
	} else {
		s.users.Remove(sessionID)
	}
}

// Logout always clears local state; the upstream call is best-effort.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	var err error
	if clients.TokenFrom(ctx) != "" {
		if err = s.api.Logout(ctx); err != nil {
			s.logger.Warn("upstream logout failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	s.Forget(sessionID)
	return err
}

// CurrentUser returns the cached user, fetching it from the upstream on a miss.
func (s *Service) CurrentUser(ctx context.Context, sessionID string) (models.User, error) {
	user, ok := s.users.Get(sessionID)
	if ok {
		return user, nil
	}
	if clients.TokenFrom(ctx) == "" {
		return models.User{}, ErrNotLoggedIn
	}

	user, err := s.api.Me(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to load current user: %w", err)
	}
	s.users.Add(sessionID, user)
	return user, nil
}

// Forget drops the cached token and user of a session.
func (s *Service) Forget(sessionID string) {
	s.tokens.Clear(sessionID)
	s.users.Remove(sessionID)
}

// InvalidateUser drops every cached copy of a user so the next request
// re-reads it, e.g. after its role changed.
func (s *Service) InvalidateUser(userID string) {
	dropped := 0
	for _, sessionID := range s.users.Keys() {
		if user, ok := s.users.Peek(sessionID); ok && user.ID == userID {
			s.users.Remove(sessionID)
			dropped++
		}
	}
	if dropped > 0 {
		s.logger.Info("cached user invalidated", zap.String("user_id", userID), zap.Int("sessions", dropped))
	}
}

// Expire handles an upstream 401: the session's credentials are no longer valid.
func (s *Service) Expire(sessionID string) {
	s.logger.Info("session expired", zap.String("session_id", sessionID))
	s.Forget(sessionID)
}
