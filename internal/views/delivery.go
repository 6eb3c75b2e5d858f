package views

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-backoffice/internal/api/dto"
	"github.com/spec-kit/restaurant-backoffice/internal/client"
	"github.com/spec-kit/restaurant-backoffice/internal/domain"
	"github.com/spec-kit/restaurant-backoffice/internal/realtime"
)

// DeliveryAPI is what the delivery board fetches and mutates.
type DeliveryAPI interface {
	DeliveryOrders(ctx context.Context, q client.ListQuery) (dto.Page[domain.Order], error)
	DeliveryDrivers(ctx context.Context, q client.ListQuery) (dto.Page[domain.Profile], error)
	AssignDelivery(ctx context.Context, req dto.AssignDeliveryRequest) (domain.Delivery, error)
	UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) (domain.Order, error)
}

// Delivery is the dispatch board: orders awaiting or out for delivery and
// the drivers that can take them.
type Delivery struct {
	*base
	api     DeliveryAPI
	orders  []domain.Order
	drivers []domain.Profile
}

// NewDelivery builds an inactive delivery board.
func NewDelivery(api DeliveryAPI, bus Bus, logger *zap.Logger, notificationLimit int) *Delivery {
	return &Delivery{
		base: newBase("delivery", bus, logger, notificationLimit),
		api:  api,
	}
}

// Activate loads orders and drivers and starts listening.
func (d *Delivery) Activate(ctx context.Context) error {
	ctx, err := d.start(ctx)
	if err != nil {
		return err
	}
	ordersErr := d.loadOrders(ctx)
	driversErr := d.loadDrivers(ctx)

	d.listen(ctx, realtime.TopicDeliveries, func(ev domain.RealtimeEvent) {
		d.note(realtime.TopicDeliveries, ev)
		d.background("orders", d.loadOrders)
		d.background("drivers", d.loadDrivers)
	})
	d.listen(ctx, realtime.TopicOrders, func(ev domain.RealtimeEvent) {
		if ev.Kind != domain.EventOrderStatusChanged && ev.Kind != domain.EventDeliveryAssigned {
			return
		}
		d.note(realtime.TopicOrders, ev)
		d.background("orders", d.loadOrders)
	})

	if ordersErr != nil {
		return ordersErr
	}
	return driversErr
}

// Refresh reloads orders and drivers.
func (d *Delivery) Refresh(ctx context.Context) error {
	if err := d.loadOrders(ctx); err != nil {
		return err
	}
	return d.loadDrivers(ctx)
}

func (d *Delivery) loadOrders(ctx context.Context) error {
	t := d.ticket("orders")
	page, err := d.api.DeliveryOrders(ctx, client.ListQuery{Page: 0, Size: boardPageSize})
	if err != nil {
		return err
	}
	d.apply("orders", t, func() { d.orders = page.Content })
	return nil
}

func (d *Delivery) loadDrivers(ctx context.Context) error {
	t := d.ticket("drivers")
	page, err := d.api.DeliveryDrivers(ctx, client.ListQuery{Page: 0, Size: boardPageSize})
	if err != nil {
		return err
	}
	d.apply("drivers", t, func() { d.drivers = page.Content })
	return nil
}

// AssignDriver hands an order to a driver and reloads the board.
func (d *Delivery) AssignDriver(ctx context.Context, orderID, driverID int64, notes string) (domain.Delivery, error) {
	delivery, err := d.api.AssignDelivery(ctx, dto.AssignDeliveryRequest{
		OrderID:         orderID,
		DeliveryStaffID: driverID,
		Notes:           notes,
	})
	if err != nil {
		return domain.Delivery{}, err
	}
	d.logger.Info("driver assigned", zap.Int64("order_id", orderID), zap.Int64("driver_id", driverID))
	return delivery, d.Refresh(ctx)
}

// UpdateStatus moves an order along the delivery workflow and reloads orders.
func (d *Delivery) UpdateStatus(ctx context.Context, orderID int64, status domain.OrderStatus) error {
	if _, err := d.api.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return err
	}
	return d.loadOrders(ctx)
}

// Orders returns the orders on the board.
func (d *Delivery) Orders() []domain.Order {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.Order(nil), d.orders...)
}

// Drivers returns the delivery staff available for assignment.
func (d *Delivery) Drivers() []domain.Profile {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.Profile(nil), d.drivers...)
}
