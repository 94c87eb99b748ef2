package handlers

import (
	"errors"
	"net/http"

	"snack-gateway/auth"
	"snack-gateway/cart"
	"snack-gateway/clients"
	"snack-gateway/models"
	"snack-gateway/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	auth      *auth.Service
	carts     *cart.Registry
	responder *Responder
	logger    *zap.Logger
}

func NewAuthHandler(authService *auth.Service, carts *cart.Registry, responder *Responder, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth:      authService,
		carts:     carts,
		responder: responder,
		logger:    logger,
	}
}

// authFailed handles errors on the auth routes, where a 401 means bad
// credentials rather than an expired session.
func (h *AuthHandler) authFailed(c *gin.Context, err error, fallback string) {
	if errors.Is(err, clients.ErrUnauthorized) {
		h.responder.abort(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", clients.Message(err, "이메일 또는 비밀번호가 올바르지 않습니다."))
		return
	}
	h.responder.Error(c, err, fallback)
}

func (h *AuthHandler) persist(c *gin.Context, s *session.Session, result models.AuthResult) {
	if err := s.SetToken(result.AccessToken); err != nil {
		h.logger.Warn("failed to persist token in session cookie", zap.String("session_id", s.ID), zap.Error(err))
	}
	// A new login never inherits the previous user's cart.
	h.carts.Evict(s.ID)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.BadRequest(c, err)
		return
	}

	s := session.From(c)
	result, err := h.auth.Login(c.Request.Context(), s.ID, req.Email, req.Password)
	if err != nil {
		h.authFailed(c, err, "로그인에 실패했습니다.")
		return
	}
	h.persist(c, s, result)

	c.JSON(http.StatusOK, gin.H{"user": result.User})
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.BadRequest(c, err)
		return
	}

	s := session.From(c)
	result, err := h.auth.Register(c.Request.Context(), s.ID, req)
	if err != nil {
		h.authFailed(c, err, "회원가입에 실패했습니다.")
		return
	}
	h.persist(c, s, result)

	c.JSON(http.StatusCreated, gin.H{"user": result.User})
}

// Logout handles POST /api/auth/logout. Local state is cleared even when the upstream fails.
func (h *AuthHandler) Logout(c *gin.Context) {
	s := session.From(c)
	ctx := c.Request.Context()
	if token := h.auth.Tokens().Get(s.ID, s.Token); token != "" {
		ctx = clients.WithToken(ctx, token)
	}

	_ = h.auth.Logout(ctx, s.ID)
	h.carts.Evict(s.ID)
	if err := s.ClearToken(); err != nil {
		h.logger.Warn("failed to clear session cookie", zap.String("session_id", s.ID), zap.Error(err))
	}

	c.Status(http.StatusNoContent)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.auth.CurrentUser(c.Request.Context(), sessionID(c))
	if err != nil {
		h.responder.Error(c, err, "사용자 정보를 불러오지 못했습니다.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
