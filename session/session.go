// Package session ties each browser to a gateway session id through an
// encrypted cookie that also keeps the persistent copy of the access token.
package session

import (
	"crypto/sha256"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	CookieName = "snack_session"

	idKey      = "sid"
	tokenKey   = "token"
	contextKey = "gateway_session"
)

type Manager struct {
	store  *sessions.CookieStore
	logger *zap.Logger
}

// NewManager builds the cookie store. An empty secret gets a random key, so
// sessions do not survive a restart.
func NewManager(secret string, maxAge time.Duration, secure bool, logger *zap.Logger) *Manager {
	logger = logger.Named("session")

	hashKey := []byte(secret)
	if secret == "" {
		logger.Warn("SESSION_SECRET is empty, using a random key")
		hashKey = securecookie.GenerateRandomKey(64)
	}
	blockKey := sha256.Sum256(hashKey)

	store := sessions.NewCookieStore(hashKey, blockKey[:])
	store.MaxAge(int(maxAge.Seconds()))
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode

	return &Manager{store: store, logger: logger}
}

// Session is one browser's view of its cookie for the current request.
type Session struct {
	ID string

	raw *sessions.Session
	c   *gin.Context
}

// Token returns the access token persisted in the cookie.
func (s *Session) Token() string {
	token, _ := s.raw.Values[tokenKey].(string)
	return token
}

// SetToken persists token. It must be called before the response body is written.
func (s *Session) SetToken(token string) error {
	s.raw.Values[tokenKey] = token
	return s.raw.Save(s.c.Request, s.c.Writer)
}

func (s *Session) ClearToken() error {
	delete(s.raw.Values, tokenKey)
	return s.raw.Save(s.c.Request, s.c.Writer)
}

// Middleware loads or creates the session and stores it on the gin context.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := m.store.Get(c.Request, CookieName)
		if err != nil {
			// A cookie signed with another key; start over with the fresh session.
			m.logger.Debug("discarding unreadable session cookie", zap.Error(err))
		}

		id, _ := raw.Values[idKey].(string)
		if id == "" {
			id = uuid.NewString()
			raw.Values[idKey] = id
			if err := raw.Save(c.Request, c.Writer); err != nil {
				m.logger.Error("failed to save new session", zap.Error(err))
			}
		}

		c.Set(contextKey, &Session{ID: id, raw: raw, c: c})
		c.Next()
	}
}

// From returns the session attached by Middleware.
func From(c *gin.Context) *Session {
	if v, ok := c.Get(contextKey); ok {
		if s, ok := v.(*Session); ok {
			return s
		}
	}
	return nil
}
