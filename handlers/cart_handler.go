package handlers

import (
	"context"
	"errors"
	"net/http"

	"snack-gateway/cart"
	"snack-gateway/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const cartWarning = "서버와 동기화하지 못했습니다. 화면의 장바구니는 반영되었습니다."

type CartHandler struct {
	carts     *cart.Registry
	responder *Responder
	logger    *zap.Logger
}

func NewCartHandler(carts *cart.Registry, responder *Responder, logger *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, responder: responder, logger: logger}
}

// store returns the session's cart, loading it on first use. A failed load is
// not fatal: the cart shows as empty and loaded.
func (h *CartHandler) store(c *gin.Context) (*cart.Store, error) {
	store := h.carts.For(sessionID(c))
	if store.Loaded() {
		return store, nil
	}
	err := store.Load(c.Request.Context())
	return store, err
}

// syncedCart returns the session's cart re-read from the upstream. On failure
// the store keeps the lines it had.
func syncedCart(c *gin.Context, carts *cart.Registry) (*cart.Store, error) {
	store := carts.For(sessionID(c))
	return store, store.Sync(c.Request.Context())
}

func (h *CartHandler) respond(c *gin.Context, status int, store *cart.Store, warning string) {
	c.JSON(status, models.CartResponse{
		Items:   store.Lines(),
		Count:   store.Count(),
		Loaded:  store.Loaded(),
		Warning: warning,
	})
}

// soft answers 200 with a warning for errors after which the local cart still changed.
func (h *CartHandler) soft(c *gin.Context, store *cart.Store, err error, fallback string) {
	if h.responder.Unauthorized(c, err) {
		return
	}
	h.logger.Warn("cart change applied locally only", zap.String("session_id", sessionID(c)), zap.Error(err))
	h.respond(c, http.StatusOK, store, fallback)
}

// GetCart handles GET /api/cart. Every call re-reads the upstream cart so
// lines returned by a rejected order show up.
func (h *CartHandler) GetCart(c *gin.Context) {
	store, err := syncedCart(c, h.carts)
	if err != nil {
		h.soft(c, store, err, "장바구니를 불러오지 못했습니다.")
		return
	}
	h.respond(c, http.StatusOK, store, "")
}

// AddItem handles POST /api/cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	var req models.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.BadRequest(c, err)
		return
	}

	store, err := h.store(c)
	if h.responder.Unauthorized(c, err) {
		return
	}

	snapshot := models.ItemSnapshot{Title: req.Title, Price: req.Price, Image: req.Image}
	if _, err := store.Add(c.Request.Context(), req.ItemID, req.Quantity, snapshot); err != nil {
		h.responder.Error(c, err, "장바구니 담기에 실패했습니다.")
		return
	}
	h.respond(c, http.StatusOK, store, "")
}

// UpdateQuantity handles PATCH /api/cart/items/:id. A quantity below 1 removes the line.
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var req models.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.BadRequest(c, err)
		return
	}

	store, err := h.store(c)
	if h.responder.Unauthorized(c, err) {
		return
	}

	_, err = store.UpdateQuantity(c.Request.Context(), c.Param("id"), *req.Quantity)
	h.mutated(c, store, err, "수량 변경에 실패했습니다.")
}

// RemoveItem handles DELETE /api/cart/items/:id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	store, err := h.store(c)
	if h.responder.Unauthorized(c, err) {
		return
	}

	_, err = store.Remove(c.Request.Context(), c.Param("id"))
	h.mutated(c, store, err, "상품 삭제에 실패했습니다.")
}

// RemoveSelected handles POST /api/cart/remove-selected
func (h *CartHandler) RemoveSelected(c *gin.Context) {
	var req models.RemoveSelectedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.BadRequest(c, err)
		return
	}

	store, err := h.store(c)
	if h.responder.Unauthorized(c, err) {
		return
	}

	_, err = store.RemoveSelected(c.Request.Context(), req.ItemIDs)
	h.mutated(c, store, err, "선택 상품 삭제에 실패했습니다.")
}

// Clear handles DELETE /api/cart. The cart is empty afterwards whatever the upstream said.
func (h *CartHandler) Clear(c *gin.Context) {
	store := h.carts.For(sessionID(c))
	if err := store.RemoveAll(c.Request.Context()); err != nil {
		h.soft(c, store, err, cartWarning)
		return
	}
	h.respond(c, http.StatusOK, store, "")
}

func (h *CartHandler) mutated(c *gin.Context, store *cart.Store, err error, fallback string) {
	var soft *cart.SoftError
	switch {
	case err == nil:
		h.respond(c, http.StatusOK, store, "")
	case errors.As(err, &soft):
		h.soft(c, store, err, cartWarning)
	default:
		h.responder.Error(c, err, fallback)
	}
}

// Refresher re-reads the session's cart; review approvals call it.
func (h *CartHandler) Refresher(c *gin.Context) func(ctx context.Context) error {
	store := h.carts.For(sessionID(c))
	return store.Refresh
}
