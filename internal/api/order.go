package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ngoctd/storefront/internal/model"
)

// CreateOrder places a new order. The bearer token is optional: guest
// checkout sends the draft's GuestDetails instead.
func (c *Client) CreateOrder(ctx context.Context, bearer string, draft model.OrderDraft) (*model.Order, error) {
	var order model.Order
	if err := c.do(ctx, http.MethodPost, "/orders", bearer, draft, &order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return &order, nil
}

// GetOrder fetches a single order. A missing order is a nil result; a
// server refusal to show it maps to ErrUnauthorized.
func (c *Client) GetOrder(ctx context.Context, bearer, id string) (*model.Order, error) {
	if bearer == "" {
		return nil, model.ErrUnauthorized
	}

	var order model.Order
	err := c.do(ctx, http.MethodGet, "/orders/"+id, bearer, nil, &order)
	if err != nil {
		switch errStatus(err) {
		case http.StatusNotFound:
			return nil, nil
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, model.ErrUnauthorized
		}
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return &order, nil
}

// MyOrders fetches the order history of the logged-in user.
func (c *Client) MyOrders(ctx context.Context, bearer string) ([]model.Order, error) {
	if bearer == "" {
		return nil, model.ErrUnauthorized
	}

	var orders []model.Order
	if err := c.do(ctx, http.MethodGet, "/orders/myorders", bearer, nil, &orders); err != nil {
		return nil, fmt.Errorf("list my orders: %w", err)
	}
	return orders, nil
}
