package handlers

import (
	"net/http"
	"time"

	"snack-gateway/auth"
	"snack-gateway/clients"
	"snack-gateway/models"
	"snack-gateway/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-ID"

	requestIDKey = "request_id"
	userKey      = "current_user"
)

// RequestID reuses the caller's X-Request-ID or generates one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Logger writes one line per request after it completes.
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if s := session.From(c); s != nil {
			fields = append(fields, zap.String("session_id", s.ID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("request completed", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			logger.Warn("request completed", fields...)
		default:
			logger.Info("request completed", fields...)
		}
	}
}

// Recovery logs a panic and answers 500.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic recovered",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered),
			zap.Stack("stack"))
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "INTERNAL",
			Message: "일시적인 오류가 발생했습니다.",
		})
	})
}

func sessionID(c *gin.Context) string {
	if s := session.From(c); s != nil {
		return s.ID
	}
	return ""
}

// Guard gates routes on login state and role.
type Guard struct {
	auth      *auth.Service
	responder *Responder
}

func NewGuard(authService *auth.Service, responder *Responder) *Guard {
	return &Guard{auth: authService, responder: responder}
}

// Authenticated puts the session's access token on the request context.
func (g *Guard) Authenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := session.From(c)
		if s == nil {
			g.responder.abort(c, http.StatusUnauthorized, CodeUnauthorized, "로그인이 필요합니다.")
			return
		}
		token := g.auth.Tokens().Get(s.ID, s.Token)
		if token == "" {
			g.responder.abort(c, http.StatusUnauthorized, CodeUnauthorized, "로그인이 필요합니다.")
			return
		}
		c.Request = c.Request.WithContext(clients.WithToken(c.Request.Context(), token))
		c.Next()
	}
}

func (g *Guard) requireUser(allowed func(models.User) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := g.auth.CurrentUser(c.Request.Context(), sessionID(c))
		if err != nil {
			g.responder.Error(c, err, "사용자 정보를 불러오지 못했습니다.")
			return
		}
		if !allowed(user) {
			g.responder.abort(c, http.StatusForbidden, CodeForbidden, "접근 권한이 없습니다.")
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func (g *Guard) RequireAdmin() gin.HandlerFunc {
	return g.requireUser(models.User.Admin)
}

func (g *Guard) RequireSuperAdmin() gin.HandlerFunc {
	return g.requireUser(models.User.SuperAdmin)
}

// CurrentUser loads the user for routes that need the id but no role.
func (g *Guard) CurrentUser() gin.HandlerFunc {
	return g.requireUser(func(models.User) bool { return true })
}

func currentUser(c *gin.Context) models.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(models.User); ok {
			return u
		}
	}
	return models.User{}
}
