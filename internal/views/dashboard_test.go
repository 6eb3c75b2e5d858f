package views

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-backoffice/internal/api/dto"
	"github.com/spec-kit/restaurant-backoffice/internal/domain"
	"github.com/spec-kit/restaurant-backoffice/internal/realtime"
)

func at(t time.Time) domain.Timestamp { return domain.NewTimestamp(t) }

func TestComputeStats(t *testing.T) {
	now := time.Date(2024, 5, 14, 15, 0, 0, 0, time.UTC)
	orders := []domain.Order{
		{ID: 1, Status: domain.OrderStatusPending, Total: 10, CreatedAt: at(now.Add(-time.Hour))},
		{ID: 2, Status: domain.OrderStatusPending, Total: 5, CreatedAt: at(now.AddDate(0, 0, -3))},
		{ID: 3, Status: domain.OrderStatusOutForDelivery, Total: 7, CreatedAt: at(now.AddDate(0, -1, 0))},
		{ID: 4, Status: domain.OrderStatusPending, Total: 100},
	}

	stats := computeStats(orders, now)
	assert.Equal(t, 4, stats.TotalOrders)
	assert.Equal(t, 3, stats.PendingOrders)
	assert.Equal(t, 1, stats.ActiveDeliveries)
	assert.Equal(t, 10.0, stats.TodayRevenue)
	assert.Equal(t, 15.0, stats.MonthlyRevenue)
}

func TestDashboardActivate(t *testing.T) {
	var orders []domain.Order
	for i := int64(1); i <= 7; i++ {
		orders = append(orders, domain.Order{ID: i, Status: domain.OrderStatusPending})
	}
	api := &dashboardAPI{
		orders:   orderFeed{pages: []dto.Page[domain.Order]{pageOf(orders...)}},
		products: []domain.Product{{ID: 1}, {ID: 2}},
		users:    []domain.Profile{{ID: 1}},
	}
	bus := newFakeBus()
	d := NewDashboard(api, bus, zap.NewNop(), 0)
	require.NoError(t, d.Activate(context.Background()))
	defer d.Deactivate()

	assert.Equal(t, string(domain.OrderStatusPending), api.lastQ.Status)
	stats := d.Stats()
	assert.Equal(t, 7, stats.TotalOrders)
	assert.Equal(t, 2, stats.TotalProducts)
	assert.Equal(t, 1, stats.TotalUsers)
	require.Len(t, d.RecentOrders(), 5)
	assert.Equal(t, int64(1), d.RecentOrders()[0].ID)
}

func TestDashboardEvents(t *testing.T) {
	api := &dashboardAPI{}
	bus := newFakeBus()
	d := NewDashboard(api, bus, zap.NewNop(), 0)
	require.NoError(t, d.Activate(context.Background()))
	defer d.Deactivate()

	var changes atomic.Int32
	d.OnChange(func() { changes.Add(1) })

	bus.emit(realtime.TopicOrders, domain.EventOrderStatusChanged, "status only")
	d.Settle()
	assert.Equal(t, 1, api.orders.count(), "only ORDER_CREATED reloads")

	bus.emit(realtime.TopicOrders, domain.EventOrderCreated, "created")
	bus.emit(realtime.TopicDeliveries, domain.EventDeliveryAssigned, "assigned")
	bus.emit(realtime.TopicDeliveries, domain.EventDeliveryStatusChanged, "delivered")
	d.Settle()

	assert.Equal(t, 3, api.orders.count())
	assert.Equal(t, []string{"delivered", "assigned", "created", "status only"}, d.Messages())
	assert.Positive(t, changes.Load())
}

func TestDashboardActivateReportsLoadFailure(t *testing.T) {
	api := &dashboardAPI{orders: orderFeed{err: errors.New("boom")}}
	bus := newFakeBus()
	d := NewDashboard(api, bus, zap.NewNop(), 0)

	err := d.Activate(context.Background())
	require.Error(t, err)
	assert.True(t, d.Active())
	assert.Equal(t, 2, bus.total())
	d.Deactivate()
	assert.Zero(t, bus.total())
}
