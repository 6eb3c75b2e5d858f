package views

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-backoffice/internal/api/dto"
	"github.com/spec-kit/restaurant-backoffice/internal/domain"
	"github.com/spec-kit/restaurant-backoffice/internal/realtime"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func kitchenOrders() []domain.Order {
	return []domain.Order{
		{ID: 1, Status: domain.OrderStatusConfirmed},
		{ID: 2, Status: domain.OrderStatusPreparing},
		{ID: 3, Status: domain.OrderStatusReady},
		{ID: 4, Status: domain.OrderStatusPending},
		{ID: 5, Status: domain.OrderStatusDelivered},
	}
}

func TestKitchenLoadKeepsKitchenStatuses(t *testing.T) {
	api := &kitchenAPI{feed: orderFeed{pages: []dto.Page[domain.Order]{pageOf(kitchenOrders()...)}}}
	k := NewKitchen(api, newFakeBus(), zap.NewNop(), 0)

	require.NoError(t, k.Activate(context.Background()))
	defer k.Deactivate()

	ids := []int64{}
	for _, o := range k.Orders() {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []int64{1, 2, 3}, ids)
	assert.Len(t, k.Column(domain.OrderStatusPreparing), 1)
	assert.Equal(t, 100, api.lastQ.Size)
	assert.Equal(t, 0, api.lastQ.Page)
}

func TestKitchenOrderCreatedScenario(t *testing.T) {
	bus := newFakeBus()
	api := &kitchenAPI{feed: orderFeed{pages: []dto.Page[domain.Order]{pageOf(kitchenOrders()...)}}}
	k := NewKitchen(api, bus, zap.NewNop(), 0)

	require.NoError(t, k.Activate(context.Background()))
	defer k.Deactivate()
	require.Equal(t, 1, api.feed.count())

	bus.emit(realtime.TopicOrders, domain.EventOrderCreated, "New order #42")
	k.Settle()

	msgs := k.Messages()
	require.NotEmpty(t, msgs)
	assert.Equal(t, "New order #42", msgs[0])
	assert.Equal(t, 2, api.feed.count(), "exactly one refetch")
}

func TestKitchenIgnoresUnrelatedOrderEvents(t *testing.T) {
	bus := newFakeBus()
	api := &kitchenAPI{}
	k := NewKitchen(api, bus, zap.NewNop(), 0)
	require.NoError(t, k.Activate(context.Background()))
	defer k.Deactivate()

	bus.emit(realtime.TopicOrders, domain.EventOrderUpdated, "note changed")
	k.Settle()
	assert.Equal(t, 1, api.feed.count())
	assert.Empty(t, k.Messages())

	bus.emit(realtime.TopicKitchen, domain.EventKitchenNewOrder, "Table 3")
	k.Settle()
	assert.Equal(t, 2, api.feed.count())
	assert.Equal(t, []string{"Table 3"}, k.Messages())
}

func TestKitchenDeactivateRemovesListeners(t *testing.T) {
	bus := newFakeBus()
	api := &kitchenAPI{}
	k := NewKitchen(api, bus, zap.NewNop(), 0)

	require.NoError(t, k.Activate(context.Background()))
	assert.Equal(t, 2, bus.total())
	assert.ErrorIs(t, k.Activate(context.Background()), ErrAlreadyActive)

	k.Deactivate()
	k.Deactivate()
	assert.Zero(t, bus.total())
	assert.Zero(t, k.ListenerCount())
	assert.False(t, k.Active())

	bus.emit(realtime.TopicKitchen, domain.EventKitchenNewOrder, "late")
	k.Settle()
	assert.Equal(t, 1, api.feed.count())
}

func TestKitchenDeactivateDuringInitialLoadLeavesNoListeners(t *testing.T) {
	bus := newFakeBus()
	gate := make(chan struct{})
	api := &kitchenAPI{feed: orderFeed{
		pages: []dto.Page[domain.Order]{pageOf(kitchenOrders()...)},
		gates: map[int]chan struct{}{0: gate},
	}}
	k := NewKitchen(api, bus, zap.NewNop(), 0)

	activated := make(chan error, 1)
	go func() { activated <- k.Activate(context.Background()) }()
	require.Eventually(t, func() bool { return api.feed.count() == 1 }, waitFor, tick)

	k.Deactivate()
	close(gate)

	select {
	case <-activated:
	case <-time.After(waitFor):
		t.Fatal("Activate did not return")
	}
	assert.False(t, k.Active())
	assert.Zero(t, bus.total())
	assert.Empty(t, k.Orders())
}

func TestKitchenDiscardsResultsAfterDeactivate(t *testing.T) {
	bus := newFakeBus()
	gate := make(chan struct{})
	api := &kitchenAPI{feed: orderFeed{
		pages: []dto.Page[domain.Order]{
			pageOf(domain.Order{ID: 1, Status: domain.OrderStatusConfirmed}),
			pageOf(domain.Order{ID: 2, Status: domain.OrderStatusConfirmed}),
		},
		gates: map[int]chan struct{}{1: gate},
	}}
	k := NewKitchen(api, bus, zap.NewNop(), 0)
	require.NoError(t, k.Activate(context.Background()))

	bus.emit(realtime.TopicKitchen, domain.EventKitchenNewOrder, "x")
	k.Deactivate()
	close(gate)
	k.Settle()

	require.Len(t, k.Orders(), 1)
	assert.Equal(t, int64(1), k.Orders()[0].ID)
}

func TestKitchenLatestFetchWins(t *testing.T) {
	bus := newFakeBus()
	slow := make(chan struct{})
	api := &kitchenAPI{feed: orderFeed{
		pages: []dto.Page[domain.Order]{
			pageOf(domain.Order{ID: 1, Status: domain.OrderStatusConfirmed}),
			pageOf(domain.Order{ID: 2, Status: domain.OrderStatusConfirmed}),
			pageOf(domain.Order{ID: 3, Status: domain.OrderStatusConfirmed}),
		},
		gates: map[int]chan struct{}{1: slow},
	}}
	k := NewKitchen(api, bus, zap.NewNop(), 0)
	require.NoError(t, k.Activate(context.Background()))
	defer k.Deactivate()

	// the first refetch stalls; a second one overtakes it
	bus.emit(realtime.TopicKitchen, domain.EventKitchenNewOrder, "a")
	require.Eventually(t, func() bool { return api.feed.count() == 2 }, waitFor, tick)
	require.NoError(t, k.Refresh(context.Background()))
	assert.Equal(t, int64(3), k.Orders()[0].ID)

	close(slow)
	k.Settle()
	assert.Equal(t, int64(3), k.Orders()[0].ID, "stale response must not overwrite")
}

func TestKitchenAdvance(t *testing.T) {
	api := &kitchenAPI{}
	k := NewKitchen(api, newFakeBus(), zap.NewNop(), 0)
	require.NoError(t, k.Activate(context.Background()))
	defer k.Deactivate()

	next, ok := NextKitchenStatus(domain.OrderStatusConfirmed)
	require.True(t, ok)
	require.NoError(t, k.Advance(context.Background(), 9, next))
	assert.Equal(t, domain.OrderStatusPreparing, api.updates[9])
	assert.Equal(t, 2, api.feed.count())

	_, ok = NextKitchenStatus(domain.OrderStatusReady)
	assert.False(t, ok)
}

func TestNotificationBufferIsBounded(t *testing.T) {
	bus := newFakeBus()
	k := NewKitchen(&kitchenAPI{}, bus, zap.NewNop(), 0)
	require.NoError(t, k.Activate(context.Background()))
	defer k.Deactivate()

	for _, msg := range []string{"1", "2", "3", "4", "5", "6", "7"} {
		bus.emit(realtime.TopicKitchen, domain.EventKitchenNewOrder, msg)
	}
	k.Settle()
	assert.Equal(t, []string{"7", "6", "5", "4", "3"}, k.Messages())
}
