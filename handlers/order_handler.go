package handlers

import (
	"net/http"

	"snack-gateway/cart"
	"snack-gateway/models"
	"snack-gateway/orders"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderHandler struct {
	submitter *orders.Submitter
	carts     *cart.Registry
	responder *Responder
	logger    *zap.Logger
}

func NewOrderHandler(submitter *orders.Submitter, carts *cart.Registry, responder *Responder, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{submitter: submitter, carts: carts, responder: responder, logger: logger}
}

// syncCart re-reads the session's cart before an order reads or cleans it.
// An expired session answers 401 and aborts. Other failures are logged and
// the store keeps its current lines.
func (h *OrderHandler) syncCart(c *gin.Context) (*cart.Store, error) {
	store, err := syncedCart(c, h.carts)
	if err != nil && !h.responder.Unauthorized(c, err) {
		h.logger.Warn("cart sync failed before order", zap.String("session_id", sessionID(c)), zap.Error(err))
	}
	return store, err
}

func (h *OrderHandler) session(c *gin.Context, store *cart.Store) orders.Session {
	return orders.Session{ID: sessionID(c), UserID: currentUser(c).ID, Cart: store}
}

// selectLines picks cart lines in the order the ids were given. Unknown ids are skipped.
func selectLines(lines []models.CartLine, ids []string) []models.CartLine {
	byID := make(map[string]models.CartLine, len(lines))
	for _, l := range lines {
		byID[l.ID] = l
	}
	selected := make([]models.CartLine, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if l, ok := byID[id]; ok && !seen[id] {
			selected = append(selected, l)
			seen[id] = true
		}
	}
	return selected
}

func (h *OrderHandler) respondSubmitted(c *gin.Context, store *cart.Store, result orders.Result) {
	c.JSON(http.StatusCreated, models.SubmitOrderResponse{
		Order:            result.Order,
		PurchaseComplete: result.PurchaseComplete,
		Cart:             store.Lines(),
	})
}

// Submit handles POST /api/orders
func (h *OrderHandler) Submit(c *gin.Context) {
	var req models.SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.BadRequest(c, err)
		return
	}

	store, syncErr := h.syncCart(c)
	if c.IsAborted() {
		return
	}

	lines := selectLines(store.Lines(), req.ItemIDs)
	if len(lines) == 0 && syncErr != nil {
		h.responder.Error(c, syncErr, "장바구니를 불러오지 못했습니다.")
		return
	}
	result, err := h.submitter.Submit(c.Request.Context(), h.session(c, store), lines, req.Message)
	if err != nil {
		h.responder.Error(c, err, "구매 요청에 실패했습니다.")
		return
	}
	h.respondSubmitted(c, store, result)
}

// SubmitInstant handles POST /api/orders/instant
func (h *OrderHandler) SubmitInstant(c *gin.Context) {
	var req models.InstantOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.BadRequest(c, err)
		return
	}

	store, _ := h.syncCart(c)
	if c.IsAborted() {
		return
	}
	line := models.CartLine{
		ID:       req.ItemID,
		Title:    req.Title,
		Price:    req.Price,
		Image:    req.Image,
		Quantity: req.Quantity,
	}
	result, err := h.submitter.SubmitInstant(c.Request.Context(), h.session(c, store), line, req.Message)
	if err != nil {
		h.responder.Error(c, err, "즉시 구매 요청에 실패했습니다.")
		return
	}
	h.respondSubmitted(c, store, result)
}

// PurchaseComplete handles GET /api/orders/purchase-complete. The summary can be read once.
func (h *OrderHandler) PurchaseComplete(c *gin.Context) {
	complete, err := h.submitter.TakePurchaseComplete(c.Request.Context(), sessionID(c))
	if err != nil {
		h.responder.Error(c, err, "구매 완료 정보를 불러오지 못했습니다.")
		return
	}
	c.JSON(http.StatusOK, complete)
}

// List handles GET /api/orders
func (h *OrderHandler) List(c *gin.Context) {
	var q models.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.responder.BadRequest(c, err)
		return
	}
	if q.Status != "" {
		q.Status = string(models.ParseOrderStatus(q.Status))
	}

	page, err := h.submitter.List(c.Request.Context(), q)
	if err != nil {
		h.responder.Error(c, err, "구매 내역을 불러오지 못했습니다.")
		return
	}
	c.JSON(http.StatusOK, page)
}

// Detail handles GET /api/orders/:id
func (h *OrderHandler) Detail(c *gin.Context) {
	detail, err := h.submitter.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.responder.Error(c, err, "구매 요청 정보를 불러오지 못했습니다.")
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Cancel handles DELETE /api/orders/:id
func (h *OrderHandler) Cancel(c *gin.Context) {
	store := h.carts.For(sessionID(c))
	if err := h.submitter.Cancel(c.Request.Context(), h.session(c, store), c.Param("id")); err != nil {
		h.responder.Error(c, err, "구매 요청 취소에 실패했습니다.")
		return
	}
	c.Status(http.StatusNoContent)
}
