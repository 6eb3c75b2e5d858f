package client

import (
	"context"
	"net/http"

	"github.com/spec-kit/restaurant-backoffice/internal/api/dto"
	"github.com/spec-kit/restaurant-backoffice/internal/domain"
)

func (c *Client) Deliveries(ctx context.Context, q ListQuery) (dto.Page[domain.Delivery], error) {
	return getList[domain.Delivery](ctx, c, "/deliveries", q)
}

// MyDeliveries lists the deliveries assigned to the signed-in driver.
func (c *Client) MyDeliveries(ctx context.Context) (dto.Page[domain.Delivery], error) {
	return getList[domain.Delivery](ctx, c, "/deliveries/my", ListQuery{})
}

func (c *Client) AssignDelivery(ctx context.Context, req dto.AssignDeliveryRequest) (domain.Delivery, error) {
	d, err := call[domain.Delivery](ctx, c, http.MethodPost, "/deliveries/assign", req)
	if err != nil {
		return domain.Delivery{}, err
	}
	c.succeeded("Delivery assigned successfully")
	return d, nil
}

func (c *Client) UpdateDeliveryStatus(ctx context.Context, id int64, status domain.DeliveryStatus) (domain.Delivery, error) {
	d, err := call[domain.Delivery](ctx, c, http.MethodPut, idPath("/deliveries", id, "status"), dto.StatusRequest{Status: string(status)})
	if err != nil {
		return domain.Delivery{}, err
	}
	c.succeeded("Delivery status updated successfully")
	return d, nil
}

// DashboardStats fetches the aggregate counters computed by the backend.
func (c *Client) DashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	return call[domain.DashboardStats](ctx, c, http.MethodGet, "/dashboard/stats", nil)
}
