package clients

import (
	"context"
	"net/http"
	"net/url"

	"snack-gateway/models"
)

// ListItems handles GET /items
func (c *MarketClient) ListItems(ctx context.Context, q models.ListQuery) (models.Page[models.Item], error) {
	body, err := c.do(ctx, http.MethodGet, listPath("/items", q), nil)
	if err != nil {
		return models.Page[models.Item]{}, err
	}
	return toPage(body, q, wireItem.toModel)
}

// GetItem handles GET /items/{itemId}
func (c *MarketClient) GetItem(ctx context.Context, itemID string) (models.Item, error) {
	body, err := c.do(ctx, http.MethodGet, "/items/"+url.PathEscape(itemID), nil)
	if err != nil {
		return models.Item{}, err
	}
	return decodeItem(body)
}
