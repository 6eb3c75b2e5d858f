package client

import (
	"context"
	"net/http"

	"github.com/spec-kit/restaurant-backoffice/internal/api/dto"
	"github.com/spec-kit/restaurant-backoffice/internal/domain"
)

func (c *Client) Users(ctx context.Context, q ListQuery) (dto.Page[domain.Profile], error) {
	return getList[domain.Profile](ctx, c, "/users", q)
}

// DeliveryDrivers lists delivery staff accounts.
func (c *Client) DeliveryDrivers(ctx context.Context, q ListQuery) (dto.Page[domain.Profile], error) {
	q.Role = domain.RoleDeliveryStaff
	return getList[domain.Profile](ctx, c, "/users", q)
}

func (c *Client) User(ctx context.Context, id int64) (domain.Profile, error) {
	return call[domain.Profile](ctx, c, http.MethodGet, idPath("/users", id), nil)
}

func (c *Client) CreateUser(ctx context.Context, req dto.UserRequest) (domain.Profile, error) {
	p, err := call[domain.Profile](ctx, c, http.MethodPost, "/users", req)
	if err != nil {
		return domain.Profile{}, err
	}
	c.succeeded("User created successfully")
	return p, nil
}

func (c *Client) UpdateUser(ctx context.Context, id int64, req dto.UserRequest) (domain.Profile, error) {
	p, err := call[domain.Profile](ctx, c, http.MethodPut, idPath("/users", id), req)
	if err != nil {
		return domain.Profile{}, err
	}
	c.succeeded("User updated successfully")
	return p, nil
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	if err := c.exec(ctx, http.MethodDelete, idPath("/users", id), nil); err != nil {
		return err
	}
	c.succeeded("User deleted successfully")
	return nil
}
