package views

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-backoffice/internal/api/dto"
	"github.com/spec-kit/restaurant-backoffice/internal/client"
	"github.com/spec-kit/restaurant-backoffice/internal/domain"
	"github.com/spec-kit/restaurant-backoffice/internal/realtime"
)

const boardPageSize = 100

// KitchenAPI is what the kitchen board fetches and mutates.
type KitchenAPI interface {
	KitchenOrders(ctx context.Context, q client.ListQuery) (dto.Page[domain.Order], error)
	UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) (domain.Order, error)
}

// Kitchen is the preparation board: confirmed, preparing and ready orders.
type Kitchen struct {
	*base
	api    KitchenAPI
	orders []domain.Order
}

// NewKitchen builds an inactive kitchen board.
func NewKitchen(api KitchenAPI, bus Bus, logger *zap.Logger, notificationLimit int) *Kitchen {
	return &Kitchen{
		base: newBase("kitchen", bus, logger, notificationLimit),
		api:  api,
	}
}

// Activate loads the board and starts listening on the order and kitchen
// topics.
func (k *Kitchen) Activate(ctx context.Context) error {
	ctx, err := k.start(ctx)
	if err != nil {
		return err
	}
	loadErr := k.load(ctx)

	k.listen(ctx, realtime.TopicOrders, func(ev domain.RealtimeEvent) {
		if ev.Kind != domain.EventOrderCreated && ev.Kind != domain.EventOrderStatusChanged {
			return
		}
		k.note(realtime.TopicOrders, ev)
		k.background("orders", k.load)
	})
	k.listen(ctx, realtime.TopicKitchen, func(ev domain.RealtimeEvent) {
		k.note(realtime.TopicKitchen, ev)
		k.background("orders", k.load)
	})
	return loadErr
}

// Refresh reloads the board.
func (k *Kitchen) Refresh(ctx context.Context) error {
	return k.load(ctx)
}

func (k *Kitchen) load(ctx context.Context) error {
	t := k.ticket("orders")
	page, err := k.api.KitchenOrders(ctx, client.ListQuery{Page: 0, Size: boardPageSize})
	if err != nil {
		return err
	}
	orders := make([]domain.Order, 0, len(page.Content))
	for _, o := range page.Content {
		if o.Status.InKitchen() {
			orders = append(orders, o)
		}
	}
	k.apply("orders", t, func() { k.orders = orders })
	return nil
}

// Advance moves an order to status and reloads the board.
func (k *Kitchen) Advance(ctx context.Context, orderID int64, status domain.OrderStatus) error {
	if _, err := k.api.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return err
	}
	k.logger.Info("order advanced", zap.Int64("order_id", orderID), zap.String("status", string(status)))
	return k.load(ctx)
}

// Orders returns every order on the board.
func (k *Kitchen) Orders() []domain.Order {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]domain.Order(nil), k.orders...)
}

// Column returns the orders in one status, in board order.
func (k *Kitchen) Column(status domain.OrderStatus) []domain.Order {
	k.mu.Lock()
	defer k.mu.Unlock()
	var out []domain.Order
	for _, o := range k.orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}

// NextKitchenStatus is the status an order moves to from the kitchen board.
func NextKitchenStatus(s domain.OrderStatus) (domain.OrderStatus, bool) {
	switch s {
	case domain.OrderStatusConfirmed:
		return domain.OrderStatusPreparing, true
	case domain.OrderStatusPreparing:
		return domain.OrderStatusReady, true
	default:
		return "", false
	}
}
