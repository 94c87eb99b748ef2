package handlers

import (
	"context"
	"net/http"

	"snack-gateway/models"

	"github.com/gin-gonic/gin"
)

type UserAPI interface {
	ListUsers(ctx context.Context, q models.ListQuery) (models.Page[models.User], error)
	UpdateUserRole(ctx context.Context, userID, role string) error
	DeleteUser(ctx context.Context, userID string) error
}

// UserCache drops cached copies of a user whose account changed.
type UserCache interface {
	InvalidateUser(userID string)
}

type SuperAdminHandler struct {
	api       UserAPI
	users     UserCache
	responder *Responder
}

func NewSuperAdminHandler(api UserAPI, users UserCache, responder *Responder) *SuperAdminHandler {
	return &SuperAdminHandler{api: api, users: users, responder: responder}
}

// ListUsers handles GET /api/super-admin/users
func (h *SuperAdminHandler) ListUsers(c *gin.Context) {
	var q models.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.responder.BadRequest(c, err)
		return
	}

	page, err := h.api.ListUsers(c.Request.Context(), q)
	if err != nil {
		h.responder.Error(c, err, "회원 목록을 불러오지 못했습니다.")
		return
	}
	c.JSON(http.StatusOK, page)
}

// UpdateRole handles PATCH /api/super-admin/users/:id/role
func (h *SuperAdminHandler) UpdateRole(c *gin.Context) {
	var req models.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.BadRequest(c, err)
		return
	}
	if c.Param("id") == currentUser(c).ID {
		h.responder.abort(c, http.StatusBadRequest, CodeInvalidInput, "자신의 권한은 변경할 수 없습니다.")
		return
	}

	if err := h.api.UpdateUserRole(c.Request.Context(), c.Param("id"), req.Role); err != nil {
		h.responder.Error(c, err, "권한 변경에 실패했습니다.")
		return
	}
	h.users.InvalidateUser(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// DeleteUser handles DELETE /api/super-admin/users/:id
func (h *SuperAdminHandler) DeleteUser(c *gin.Context) {
	if c.Param("id") == currentUser(c).ID {
		h.responder.abort(c, http.StatusBadRequest, CodeInvalidInput, "자신의 계정은 삭제할 수 없습니다.")
		return
	}

	if err := h.api.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		h.responder.Error(c, err, "회원 삭제에 실패했습니다.")
		return
	}
	h.users.InvalidateUser(c.Param("id"))
	c.Status(http.StatusNoContent)
}
