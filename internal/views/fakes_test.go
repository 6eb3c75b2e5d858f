package views

import (
	"context"
	"sync"

	"github.com/spec-kit/restaurant-backoffice/internal/api/dto"
	"github.com/spec-kit/restaurant-backoffice/internal/client"
	"github.com/spec-kit/restaurant-backoffice/internal/domain"
	"github.com/spec-kit/restaurant-backoffice/internal/realtime"
)

type fakeBus struct {
	mu        sync.Mutex
	listeners map[string][]realtime.Listener
}

func newFakeBus() *fakeBus {
	return &fakeBus{listeners: make(map[string][]realtime.Listener)}
}

func (b *fakeBus) On(topic string, l realtime.Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, existing := range b.listeners[topic] {
		if existing == l {
			return
		}
	}
	b.listeners[topic] = append(b.listeners[topic], l)
}

func (b *fakeBus) Off(topic string, l realtime.Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ls := b.listeners[topic]
	for i, existing := range ls {
		if existing == l {
			b.listeners[topic] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

func (b *fakeBus) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, ls := range b.listeners {
		n += len(ls)
	}
	return n
}

func (b *fakeBus) emit(topic string, kind domain.EventKind, message string) {
	b.mu.Lock()
	ls := append([]realtime.Listener(nil), b.listeners[topic]...)
	b.mu.Unlock()
	ev := domain.RealtimeEvent{Kind: kind, Message: message}
	for _, l := range ls {
		l.OnEvent(topic, ev)
	}
}

// orderFeed serves a scripted sequence of order pages. A call whose index has
// a gate blocks until the gate is closed.
type orderFeed struct {
	mu    sync.Mutex
	calls int
	pages []dto.Page[domain.Order]
	gates map[int]chan struct{}
	err   error
}

func (f *orderFeed) next(ctx context.Context) (dto.Page[domain.Order], error) {
	f.mu.Lock()
	idx := f.calls
	f.calls++
	gate := f.gates[idx]
	var page dto.Page[domain.Order]
	if len(f.pages) > 0 {
		page = f.pages[min(idx, len(f.pages)-1)]
	}
	err := f.err
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
		}
	}
	return page, err
}

func (f *orderFeed) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func pageOf(orders ...domain.Order) dto.Page[domain.Order] {
	return dto.NewPage(orders, 0, 0)
}

type kitchenAPI struct {
	feed    orderFeed
	mu      sync.Mutex
	updates map[int64]domain.OrderStatus
	lastQ   client.ListQuery
}

func (k *kitchenAPI) KitchenOrders(ctx context.Context, q client.ListQuery) (dto.Page[domain.Order], error) {
	k.mu.Lock()
	k.lastQ = q
	k.mu.Unlock()
	return k.feed.next(ctx)
}

func (k *kitchenAPI) UpdateOrderStatus(_ context.Context, id int64, status domain.OrderStatus) (domain.Order, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.updates == nil {
		k.updates = make(map[int64]domain.OrderStatus)
	}
	k.updates[id] = status
	return domain.Order{ID: id, Status: status}, nil
}

type deliveryAPI struct {
	orders      orderFeed
	mu          sync.Mutex
	driverCalls int
	drivers     []domain.Profile
	assigned    []dto.AssignDeliveryRequest
	updates     map[int64]domain.OrderStatus
}

func (d *deliveryAPI) DeliveryOrders(ctx context.Context, _ client.ListQuery) (dto.Page[domain.Order], error) {
	return d.orders.next(ctx)
}

func (d *deliveryAPI) DeliveryDrivers(_ context.Context, q client.ListQuery) (dto.Page[domain.Profile], error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.driverCalls++
	return dto.NewPage(d.drivers, 0, 0), nil
}

func (d *deliveryAPI) driverCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.driverCalls
}

func (d *deliveryAPI) AssignDelivery(_ context.Context, req dto.AssignDeliveryRequest) (domain.Delivery, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.assigned = append(d.assigned, req)
	return domain.Delivery{ID: 1, OrderID: req.OrderID, DeliveryStaffID: req.DeliveryStaffID, Status: domain.DeliveryStatusAssigned}, nil
}

func (d *deliveryAPI) UpdateOrderStatus(_ context.Context, id int64, status domain.OrderStatus) (domain.Order, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.updates == nil {
		d.updates = make(map[int64]domain.OrderStatus)
	}
	d.updates[id] = status
	return domain.Order{ID: id, Status: status}, nil
}

type dashboardAPI struct {
	orders   orderFeed
	products []domain.Product
	users    []domain.Profile
	lastQ    client.ListQuery
	mu       sync.Mutex
}

func (d *dashboardAPI) Orders(ctx context.Context, q client.ListQuery) (dto.Page[domain.Order], error) {
	d.mu.Lock()
	d.lastQ = q
	d.mu.Unlock()
	return d.orders.next(ctx)
}

func (d *dashboardAPI) Products(context.Context, client.ListQuery) (dto.Page[domain.Product], error) {
	return dto.NewPage(d.products, 0, 0), nil
}

func (d *dashboardAPI) Users(context.Context, client.ListQuery) (dto.Page[domain.Profile], error) {
	return dto.NewPage(d.users, 0, 0), nil
}
