package client

import (
	"context"
	"net/http"

	"github.com/spec-kit/restaurant-backoffice/internal/api/dto"
	"github.com/spec-kit/restaurant-backoffice/internal/domain"
)

// Orders, like every order-returning method, normalizes the wire records so
// callers only ever see domain.Order.
func (c *Client) Orders(ctx context.Context, q ListQuery) (dto.Page[domain.Order], error) {
	return c.orderList(ctx, "/orders", q)
}

// KitchenOrders lists orders queued for the kitchen.
func (c *Client) KitchenOrders(ctx context.Context, q ListQuery) (dto.Page[domain.Order], error) {
	return c.orderList(ctx, "/orders/kitchen", q)
}

// DeliveryOrders lists orders ready for or out on delivery.
func (c *Client) DeliveryOrders(ctx context.Context, q ListQuery) (dto.Page[domain.Order], error) {
	return c.orderList(ctx, "/orders/delivery", q)
}

func (c *Client) Order(ctx context.Context, id int64) (domain.Order, error) {
	rec, err := call[domain.OrderRecord](ctx, c, http.MethodGet, idPath("/orders", id), nil)
	if err != nil {
		return domain.Order{}, err
	}
	return domain.NormalizeOrder(rec), nil
}

func (c *Client) CreateOrder(ctx context.Context, req dto.CreateOrderRequest) (domain.Order, error) {
	rec, err := call[domain.OrderRecord](ctx, c, http.MethodPost, "/orders/create", req)
	if err != nil {
		return domain.Order{}, err
	}
	c.succeeded("Order created successfully")
	return domain.NormalizeOrder(rec), nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) (domain.Order, error) {
	rec, err := call[domain.OrderRecord](ctx, c, http.MethodPut, idPath("/orders", id, "status"), dto.StatusRequest{Status: string(status)})
	if err != nil {
		return domain.Order{}, err
	}
	c.succeeded("Order status updated successfully")
	return domain.NormalizeOrder(rec), nil
}

func (c *Client) orderList(ctx context.Context, path string, q ListQuery) (dto.Page[domain.Order], error) {
	page, err := getList[domain.OrderRecord](ctx, c, path, q)
	if err != nil {
		return dto.Page[domain.Order]{}, err
	}
	return dto.Page[domain.Order]{
		Content:       domain.NormalizeOrders(page.Content),
		Page:          page.Page,
		Size:          page.Size,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages,
		First:         page.First,
		Last:          page.Last,
		HasNext:       page.HasNext,
		HasPrevious:   page.HasPrevious,
	}, nil
}
