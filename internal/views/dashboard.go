package views

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-backoffice/internal/api/dto"
	"github.com/spec-kit/restaurant-backoffice/internal/client"
	"github.com/spec-kit/restaurant-backoffice/internal/domain"
	"github.com/spec-kit/restaurant-backoffice/internal/realtime"
)

const recentOrderCount = 5

// DashboardAPI is what the dashboard fetches.
type DashboardAPI interface {
	Orders(ctx context.Context, q client.ListQuery) (dto.Page[domain.Order], error)
	Products(ctx context.Context, q client.ListQuery) (dto.Page[domain.Product], error)
	Users(ctx context.Context, q client.ListQuery) (dto.Page[domain.Profile], error)
}

// Dashboard summarizes pending work for supervisors.
type Dashboard struct {
	*base
	api DashboardAPI
	now func() time.Time

	stats  domain.DashboardStats
	recent []domain.Order
}

// NewDashboard builds an inactive dashboard.
func NewDashboard(api DashboardAPI, bus Bus, logger *zap.Logger, notificationLimit int) *Dashboard {
	return &Dashboard{
		base: newBase("dashboard", bus, logger, notificationLimit),
		api:  api,
		now:  time.Now,
	}
}

// Activate loads the summary and starts listening. The view stays active when
// the initial load fails; the error is returned for display.
func (d *Dashboard) Activate(ctx context.Context) error {
	ctx, err := d.start(ctx)
	if err != nil {
		return err
	}
	loadErr := d.load(ctx)

	d.listen(ctx, realtime.TopicOrders, func(ev domain.RealtimeEvent) {
		d.note(realtime.TopicOrders, ev)
		if ev.Kind == domain.EventOrderCreated {
			d.background("dashboard", d.load)
		}
	})
	d.listen(ctx, realtime.TopicDeliveries, func(ev domain.RealtimeEvent) {
		d.note(realtime.TopicDeliveries, ev)
		if ev.Kind == domain.EventDeliveryStatusChanged {
			d.background("dashboard", d.load)
		}
	})
	return loadErr
}

// Refresh reloads the summary.
func (d *Dashboard) Refresh(ctx context.Context) error {
	return d.load(ctx)
}

func (d *Dashboard) load(ctx context.Context) error {
	t := d.ticket("dashboard")

	orders, err := d.api.Orders(ctx, client.ListQuery{Status: string(domain.OrderStatusPending)})
	if err != nil {
		return err
	}
	products, err := d.api.Products(ctx, client.ListQuery{})
	if err != nil {
		return err
	}
	users, err := d.api.Users(ctx, client.ListQuery{})
	if err != nil {
		return err
	}

	stats := computeStats(orders.Content, d.now())
	stats.TotalUsers = users.TotalElements
	stats.TotalProducts = products.TotalElements

	recent := orders.Content
	if len(recent) > recentOrderCount {
		recent = recent[:recentOrderCount]
	}
	d.apply("dashboard", t, func() {
		d.stats = stats
		d.recent = append([]domain.Order(nil), recent...)
	})
	return nil
}

func computeStats(orders []domain.Order, now time.Time) domain.DashboardStats {
	stats := domain.DashboardStats{TotalOrders: len(orders)}
	year, month, day := now.Date()
	for _, o := range orders {
		switch o.Status {
		case domain.OrderStatusPending:
			stats.PendingOrders++
		case domain.OrderStatusOutForDelivery:
			stats.ActiveDeliveries++
		}
		if o.CreatedAt.IsZero() {
			continue
		}
		cy, cm, cd := o.CreatedAt.In(now.Location()).Date()
		if cy == year && cm == month {
			stats.MonthlyRevenue += o.Total
			if cd == day {
				stats.TodayRevenue += o.Total
			}
		}
	}
	return stats
}

// Stats returns the computed summary.
func (d *Dashboard) Stats() domain.DashboardStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// RecentOrders returns the first orders of the pending list.
func (d *Dashboard) RecentOrders() []domain.Order {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.Order(nil), d.recent...)
}
