package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/restaurant-backoffice/internal/api/dto"
	"github.com/spec-kit/restaurant-backoffice/internal/domain"
	"github.com/spec-kit/restaurant-backoffice/internal/events"
	"github.com/spec-kit/restaurant-backoffice/internal/repository"
	apperrors "github.com/spec-kit/restaurant-backoffice/pkg/util"
)

// DeliveryQueueStatuses are the order states shown on the delivery board.
var DeliveryQueueStatuses = []domain.OrderStatus{domain.OrderStatusReady, domain.OrderStatusOutForDelivery}

// orderTransitions lists the allowed next states. Delivered and cancelled
// orders are final.
var orderTransitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPending:        {domain.OrderStatusConfirmed, domain.OrderStatusCancelled},
	domain.OrderStatusConfirmed:      {domain.OrderStatusPreparing, domain.OrderStatusCancelled},
	domain.OrderStatusPreparing:      {domain.OrderStatusReady, domain.OrderStatusCancelled},
	domain.OrderStatusReady:          {domain.OrderStatusOutForDelivery, domain.OrderStatusDelivered, domain.OrderStatusCancelled},
	domain.OrderStatusOutForDelivery: {domain.OrderStatusDelivered},
	domain.OrderStatusDelivered:      nil,
	domain.OrderStatusCancelled:      nil,
}

// ParseOrderStatus validates a status tag.
func ParseOrderStatus(raw string) (domain.OrderStatus, error) {
	status := domain.OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := orderTransitions[status]; !ok {
		return "", apperrors.NewValidationError("invalid order status", map[string]any{"status": raw})
	}
	return status, nil
}

// OrderService coordinates order workflows.
type OrderService struct {
	orders     repository.OrderRepository
	catalog    repository.CatalogRepository
	dispatcher events.Dispatcher
}

// OrderDependencies bundles repositories for the order service.
type OrderDependencies struct {
	OrderRepo   repository.OrderRepository
	CatalogRepo repository.CatalogRepository
	Dispatcher  events.Dispatcher
}

// NewOrderService constructs the service.
func NewOrderService(deps OrderDependencies) *OrderService {
	return &OrderService{
		orders:     deps.OrderRepo,
		catalog:    deps.CatalogRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Create prices the requested items from the catalog and stores a pending order.
func (s *OrderService) Create(ctx context.Context, actor events.Actor, req dto.CreateOrderRequest) (*domain.OrderRecord, error) {
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, apperrors.NewValidationError("customerName required", nil)
	}
	if len(req.Items) == 0 {
		return nil, apperrors.NewValidationError("at least one item required", nil)
	}

	order := &domain.OrderRecord{
		OrderNumber:     generateOrderNumber(),
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		CustomerAddress: strings.TrimSpace(req.CustomerAddress),
		Notes:           strings.TrimSpace(req.Notes),
		Status:          domain.OrderStatusPending,
		CreatedBy:       &domain.Profile{ID: actor.UserID, Role: actor.Role},
	}
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, apperrors.NewValidationError("quantity must be positive", map[string]any{"item": i})
		}
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, apperrors.NewValidationError("unknown product", map[string]any{"productId": item.ProductID})
		}
		if product.Available != nil && !*product.Available {
			return nil, apperrors.NewValidationError(product.Name+" is not available", map[string]any{"productId": item.ProductID})
		}
		subtotal := product.Price * float64(item.Quantity)
		order.Items = append(order.Items, domain.OrderItemRecord{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			Price:       product.Price,
			Subtotal:    subtotal,
		})
		order.TotalAmount += subtotal
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, repoError("order", 0, err)
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventOrderCreated,
		OrderID: order.ID,
		Actor:   actor,
		Payload: events.OrderCreatedPayload{Order: *order},
	})
	return order, nil
}

// List returns orders matching filter, newest first.
func (s *OrderService) List(ctx context.Context, filter repository.OrderFilter) ([]domain.OrderRecord, error) {
	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}
	return orders, nil
}

// Kitchen returns the orders the kitchen works on.
func (s *OrderService) Kitchen(ctx context.Context) ([]domain.OrderRecord, error) {
	return s.List(ctx, repository.OrderFilter{Statuses: domain.KitchenStatuses})
}

// DeliveryQueue returns orders ready for or out for delivery.
func (s *OrderService) DeliveryQueue(ctx context.Context) ([]domain.OrderRecord, error) {
	return s.List(ctx, repository.OrderFilter{Statuses: DeliveryQueueStatuses})
}

// Get returns one order.
func (s *OrderService) Get(ctx context.Context, id int64) (*domain.OrderRecord, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, repoError("order", id, err)
	}
	return order, nil
}

// UpdateStatus moves an order along its lifecycle.
func (s *OrderService) UpdateStatus(ctx context.Context, actor events.Actor, id int64, status domain.OrderStatus) (*domain.OrderRecord, error) {
	current, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, repoError("order", id, err)
	}
	if current.Status == status {
		return current, nil
	}
	if !slices.Contains(orderTransitions[current.Status], status) {
		return nil, apperrors.NewConflict(
			fmt.Sprintf("cannot move order from %s to %s", current.Status, status),
			map[string]any{"id": id})
	}

	updated, err := s.orders.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, repoError("order", id, err)
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventOrderStatusChanged,
		OrderID: id,
		Actor:   actor,
		Payload: events.OrderStatusChangedPayload{OldStatus: current.Status, NewStatus: status, Order: *updated},
	})
	return updated, nil
}

func generateOrderNumber() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}

func (s *OrderService) publishEvent(ctx context.Context, event events.Event) {
	publish(ctx, s.dispatcher, event)
}
