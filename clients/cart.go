package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"snack-gateway/models"
)

// FetchCart handles GET /cart
func (c *MarketClient) FetchCart(ctx context.Context) ([]models.CartLine, error) {
	body, err := c.do(ctx, http.MethodGet, "/cart", nil)
	if err != nil {
		return nil, err
	}
	return decodeCart(body)
}

// AddCartItem handles POST /cart/items
func (c *MarketClient) AddCartItem(ctx context.Context, req models.AddCartItemRequest) ([]models.CartLine, error) {
	body, err := c.do(ctx, http.MethodPost, "/cart/items", req)
	if err != nil {
		return nil, err
	}
	return decodeCart(body)
}

// UpdateCartItem handles PATCH /cart/items/{itemId}
func (c *MarketClient) UpdateCartItem(ctx context.Context, itemID string, quantity int) ([]models.CartLine, error) {
	reqBody := struct {
		Quantity int `json:"quantity"`
	}{Quantity: quantity}

	body, err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/cart/items/%s", url.PathEscape(itemID)), reqBody)
	if err != nil {
		return nil, err
	}
	return decodeCart(body)
}

// DeleteCartItem handles DELETE /cart/items/{itemId}. A 204 decodes as an empty cart.
func (c *MarketClient) DeleteCartItem(ctx context.Context, itemID string) ([]models.CartLine, error) {
	body, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/cart/items/%s", url.PathEscape(itemID)), nil)
	if err != nil {
		return nil, err
	}
	return decodeCart(body)
}

// ClearCart handles DELETE /cart
func (c *MarketClient) ClearCart(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, "/cart", nil)
	return err
}
