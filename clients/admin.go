package clients

import (
	"context"
	"net/http"
	"net/url"

	"snack-gateway/models"
)

// UpdateOrderStatus handles PATCH /admin/orders/{orderId}/status
func (c *MarketClient) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	reqBody := struct {
		Status models.OrderStatus `json:"status"`
	}{Status: status}

	_, err := c.do(ctx, http.MethodPatch, "/admin/orders/"+url.PathEscape(orderID)+"/status", reqBody)
	return err
}

// GetBudget handles GET /budget/current
func (c *MarketClient) GetBudget(ctx context.Context) (models.BudgetSnapshot, error) {
	body, err := c.do(ctx, http.MethodGet, "/budget/current", nil)
	if err != nil {
		return models.BudgetSnapshot{}, err
	}
	return decodeBudget(body)
}

// UpdateBudget handles PATCH /budget
func (c *MarketClient) UpdateBudget(ctx context.Context, req models.UpdateBudgetRequest) error {
	_, err := c.do(ctx, http.MethodPatch, "/budget", req)
	return err
}

// ListUsers handles GET /super-admin/users
func (c *MarketClient) ListUsers(ctx context.Context, q models.ListQuery) (models.Page[models.User], error) {
	body, err := c.do(ctx, http.MethodGet, listPath("/super-admin/users", q), nil)
	if err != nil {
		return models.Page[models.User]{}, err
	}
	return toPage(body, q, wireUser.toModel)
}

// UpdateUserRole handles PATCH /super-admin/users/{userId}/role
func (c *MarketClient) UpdateUserRole(ctx context.Context, userID, role string) error {
	reqBody := struct {
		Role string `json:"role"`
	}{Role: role}

	_, err := c.do(ctx, http.MethodPatch, "/super-admin/users/"+url.PathEscape(userID)+"/role", reqBody)
	return err
}

// DeleteUser handles DELETE /super-admin/users/{userId}
func (c *MarketClient) DeleteUser(ctx context.Context, userID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/super-admin/users/"+url.PathEscape(userID), nil)
	return err
}
