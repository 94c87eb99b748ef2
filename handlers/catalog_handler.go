package handlers

import (
	"context"
	"net/http"

	"snack-gateway/models"

	"github.com/gin-gonic/gin"
)

type CatalogAPI interface {
	ListItems(ctx context.Context, q models.ListQuery) (models.Page[models.Item], error)
	GetItem(ctx context.Context, itemID string) (models.Item, error)
}

type CatalogHandler struct {
	api       CatalogAPI
	responder *Responder
}

func NewCatalogHandler(api CatalogAPI, responder *Responder) *CatalogHandler {
	return &CatalogHandler{api: api, responder: responder}
}

// ListItems handles GET /api/items
func (h *CatalogHandler) ListItems(c *gin.Context) {
	var q models.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.responder.BadRequest(c, err)
		return
	}

	page, err := h.api.ListItems(c.Request.Context(), q)
	if err != nil {
		h.responder.Error(c, err, "상품 목록을 불러오지 못했습니다.")
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetItem handles GET /api/items/:id
func (h *CatalogHandler) GetItem(c *gin.Context) {
	item, err := h.api.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.responder.Error(c, err, "상품 정보를 불러오지 못했습니다.")
		return
	}
	c.JSON(http.StatusOK, item)
}
