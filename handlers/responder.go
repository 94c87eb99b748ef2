package handlers

import (
	"errors"
	"net/http"

	"snack-gateway/auth"
	"snack-gateway/cart"
	"snack-gateway/clients"
	"snack-gateway/ephemeral"
	"snack-gateway/models"
	"snack-gateway/orders"
	"snack-gateway/review"
	"snack-gateway/session"
	"snack-gateway/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	CodeInvalidInput   = "INVALID_INPUT"
	CodeValidation     = "VALIDATION_FAILED"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeSessionExpired = "SESSION_EXPIRED"
	CodeForbidden      = "FORBIDDEN"
	CodeNotFound       = "NOT_FOUND"
	CodeConflict       = "NOT_PENDING"
	CodeUpstream       = "UPSTREAM_ERROR"
)

const sessionExpiredMessage = "세션이 만료되었습니다. 다시 로그인해주세요."

// Responder turns domain and upstream errors into ErrorResponse bodies.
type Responder struct {
	auth   *auth.Service
	carts  *cart.Registry
	logger *zap.Logger
}

func NewResponder(authService *auth.Service, carts *cart.Registry, logger *zap.Logger) *Responder {
	return &Responder{auth: authService, carts: carts, logger: logger}
}

func (r *Responder) abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: code, Message: message})
}

// BadRequest answers a request that failed binding.
func (r *Responder) BadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   CodeInvalidInput,
		Message: "Invalid request body",
		Details: err.Error(),
	})
}

// Expire drops every credential of the session and answers SESSION_EXPIRED.
func (r *Responder) Expire(c *gin.Context) {
	if s := session.From(c); s != nil {
		r.auth.Expire(s.ID)
		r.carts.Evict(s.ID)
		if err := s.ClearToken(); err != nil {
			r.logger.Warn("failed to clear session cookie", zap.Error(err))
		}
	}
	r.abort(c, http.StatusUnauthorized, CodeSessionExpired, sessionExpiredMessage)
}

// Error writes the response for err. fallback is shown when the error carries
// no message suitable for users.
func (r *Responder) Error(c *gin.Context, err error, fallback string) {
	var (
		verr   *validators.ValidationError
		apiErr *clients.APIError
	)

	switch {
	case errors.As(err, &verr):
		fields := make(map[string]string, len(verr.Fields))
		for _, f := range verr.Fields {
			fields[f.Field] = f.Message
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   CodeValidation,
			Message: "입력값을 확인해주세요.",
			Fields:  fields,
		})
	case errors.Is(err, auth.ErrNotLoggedIn):
		r.abort(c, http.StatusUnauthorized, CodeUnauthorized, "로그인이 필요합니다.")
	case errors.Is(err, clients.ErrUnauthorized):
		r.Expire(c)
	case errors.Is(err, orders.ErrEmptySelection):
		r.abort(c, http.StatusBadRequest, CodeInvalidInput, "주문할 상품을 선택해주세요.")
	case errors.Is(err, cart.ErrInvalidQuantity):
		r.abort(c, http.StatusBadRequest, CodeInvalidInput, "수량은 1 이상이어야 합니다.")
	case errors.Is(err, review.ErrNothingToUpdate):
		r.abort(c, http.StatusBadRequest, CodeInvalidInput, "변경할 예산을 입력해주세요.")
	case errors.Is(err, review.ErrNotPending):
		r.abort(c, http.StatusConflict, CodeConflict, "승인 대기 중인 요청만 처리할 수 있습니다.")
	case errors.Is(err, ephemeral.ErrNotFound):
		r.abort(c, http.StatusNotFound, CodeNotFound, "표시할 구매 내역이 없습니다.")
	case errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError:
		code := apiErr.Code
		if code == "" {
			code = http.StatusText(apiErr.StatusCode)
		}
		r.abort(c, apiErr.StatusCode, code, clients.Message(err, fallback))
	default:
		r.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		r.abort(c, http.StatusBadGateway, CodeUpstream, fallback)
	}
}

// Unauthorized reports whether err is an upstream 401 and, if so, expires the session.
func (r *Responder) Unauthorized(c *gin.Context, err error) bool {
	if errors.Is(err, clients.ErrUnauthorized) {
		r.Expire(c)
		return true
	}
	return false
}
