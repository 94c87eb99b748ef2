package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"snack-gateway/models"
)

func listPath(base string, q models.ListQuery) string {
	values := url.Values{}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Category != "" {
		values.Set("category", q.Category)
	}
	if q.Sort != "" {
		values.Set("sort", q.Sort)
	}
	if q.Status != "" {
		values.Set("status", q.Status)
	}
	if len(values) == 0 {
		return base
	}
	return base + "?" + values.Encode()
}

// CreateOrder handles POST /orders
func (c *MarketClient) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (models.Order, error) {
	body, err := c.do(ctx, http.MethodPost, "/orders", req)
	if err != nil {
		return models.Order{}, err
	}
	order, err := decodeOrder(body)
	if err != nil {
		return models.Order{}, err
	}
	if order.ID == "" {
		return models.Order{}, fmt.Errorf("upstream created an order without an id")
	}
	return order, nil
}

// CancelOrder handles DELETE /orders/{orderId}
func (c *MarketClient) CancelOrder(ctx context.Context, orderID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/orders/"+url.PathEscape(orderID), nil)
	return err
}

// ListOrders handles GET /orders
func (c *MarketClient) ListOrders(ctx context.Context, q models.ListQuery) (models.Page[models.Order], error) {
	body, err := c.do(ctx, http.MethodGet, listPath("/orders", q), nil)
	if err != nil {
		return models.Page[models.Order]{}, err
	}
	return toPage(body, q, wireOrder.toModel)
}

// GetOrder handles GET /orders/{orderId}
func (c *MarketClient) GetOrder(ctx context.Context, orderID string) (models.OrderDetail, error) {
	body, err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil)
	if err != nil {
		return models.OrderDetail{}, err
	}
	return decodeOrderDetail(body)
}
