package handlers

import (
	"net/http"

	"snack-gateway/models"
	"snack-gateway/review"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	reviewer  *review.Reviewer
	cart      *CartHandler
	responder *Responder
}

func NewAdminHandler(reviewer *review.Reviewer, cartHandler *CartHandler, responder *Responder) *AdminHandler {
	return &AdminHandler{reviewer: reviewer, cart: cartHandler, responder: responder}
}

// GetOrder handles GET /api/admin/orders/:id
func (h *AdminHandler) GetOrder(c *gin.Context) {
	view, err := h.reviewer.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.responder.Error(c, err, "구매 요청 정보를 불러오지 못했습니다.")
		return
	}
	c.JSON(http.StatusOK, view)
}

// Approve handles POST /api/admin/orders/:id/approve
func (h *AdminHandler) Approve(c *gin.Context) {
	outcome, err := h.reviewer.Approve(c.Request.Context(), c.Param("id"), h.cart.Refresher(c))
	if err != nil {
		h.responder.Error(c, err, "승인 처리에 실패했습니다.")
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// Reject handles POST /api/admin/orders/:id/reject
func (h *AdminHandler) Reject(c *gin.Context) {
	outcome, err := h.reviewer.Reject(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.responder.Error(c, err, "반려 처리에 실패했습니다.")
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// GetBudget handles GET /api/admin/budget
func (h *AdminHandler) GetBudget(c *gin.Context) {
	budget, err := h.reviewer.Budget(c.Request.Context())
	if err != nil {
		h.responder.Error(c, err, "예산 정보를 불러오지 못했습니다.")
		return
	}
	c.JSON(http.StatusOK, budget)
}

// UpdateBudget handles PATCH /api/admin/budget
func (h *AdminHandler) UpdateBudget(c *gin.Context) {
	var req models.UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.BadRequest(c, err)
		return
	}

	budget, err := h.reviewer.UpdateBudget(c.Request.Context(), req)
	if err != nil {
		h.responder.Error(c, err, "예산 변경에 실패했습니다.")
		return
	}
	c.JSON(http.StatusOK, budget)
}
