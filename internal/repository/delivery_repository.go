package repository

import (
	"context"

	"github.com/spec-kit/restaurant-backoffice/internal/domain"
)

// DeliveryFilter narrows delivery listings.
type DeliveryFilter struct {
	DeliveryStaffID int64
	Statuses        []domain.DeliveryStatus
}

// DeliveryRepository stores order-to-driver assignments.
type DeliveryRepository interface {
	Create(ctx context.Context, d *domain.Delivery) error
	Update(ctx context.Context, d *domain.Delivery) error
	GetByID(ctx context.Context, id int64) (*domain.Delivery, error)
	GetByOrderID(ctx context.Context, orderID int64) (*domain.Delivery, error)
	List(ctx context.Context, filter DeliveryFilter) ([]domain.Delivery, error)
}

type memoryDeliveryRepository struct {
	table *memTable[domain.Delivery]
}

// NewMemoryDeliveryRepository keeps deliveries in process memory.
func NewMemoryDeliveryRepository() DeliveryRepository {
	return &memoryDeliveryRepository{table: newMemTable[domain.Delivery]()}
}

// Create allows one delivery per order.
func (r *memoryDeliveryRepository) Create(_ context.Context, d *domain.Delivery) error {
	return r.table.insert(func(id int64) (domain.Delivery, error) {
		for _, existing := range r.table.rows {
			if existing.OrderID == d.OrderID {
				return domain.Delivery{}, ErrConflict
			}
		}
		d.ID = id
		return *d, nil
	})
}

func (r *memoryDeliveryRepository) Update(_ context.Context, d *domain.Delivery) error {
	_, err := r.table.update(d.ID, func(domain.Delivery) (domain.Delivery, error) {
		return *d, nil
	})
	return err
}

func (r *memoryDeliveryRepository) GetByID(_ context.Context, id int64) (*domain.Delivery, error) {
	d, ok := r.table.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (r *memoryDeliveryRepository) GetByOrderID(_ context.Context, orderID int64) (*domain.Delivery, error) {
	found := r.table.scan(func(d domain.Delivery) bool { return d.OrderID == orderID })
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return &found[0], nil
}

func (r *memoryDeliveryRepository) List(_ context.Context, filter DeliveryFilter) ([]domain.Delivery, error) {
	return r.table.scan(func(d domain.Delivery) bool {
		if filter.DeliveryStaffID > 0 && d.DeliveryStaffID != filter.DeliveryStaffID {
			return false
		}
		if len(filter.Statuses) == 0 {
			return true
		}
		for _, s := range filter.Statuses {
			if d.Status == s {
				return true
			}
		}
		return false
	}), nil
}
