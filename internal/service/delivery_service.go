package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spec-kit/restaurant-backoffice/internal/api/dto"
	"github.com/spec-kit/restaurant-backoffice/internal/domain"
	"github.com/spec-kit/restaurant-backoffice/internal/events"
	"github.com/spec-kit/restaurant-backoffice/internal/repository"
	apperrors "github.com/spec-kit/restaurant-backoffice/pkg/util"
)

// deliveryTransitions lists the allowed next states. Any open delivery may
// fail.
var deliveryTransitions = map[domain.DeliveryStatus][]domain.DeliveryStatus{
	domain.DeliveryStatusAssigned:  {domain.DeliveryStatusPickedUp, domain.DeliveryStatusFailed},
	domain.DeliveryStatusPickedUp:  {domain.DeliveryStatusOnTheWay, domain.DeliveryStatusDelivered, domain.DeliveryStatusFailed},
	domain.DeliveryStatusOnTheWay:  {domain.DeliveryStatusDelivered, domain.DeliveryStatusFailed},
	domain.DeliveryStatusDelivered: nil,
	domain.DeliveryStatusFailed:    nil,
}

// ParseDeliveryStatus validates a status tag.
func ParseDeliveryStatus(raw string) (domain.DeliveryStatus, error) {
	status := domain.DeliveryStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := deliveryTransitions[status]; !ok {
		return "", apperrors.NewValidationError("invalid delivery status", map[string]any{"status": raw})
	}
	return status, nil
}

// DeliveryService handles driver assignment and delivery progress.
type DeliveryService struct {
	deliveries repository.DeliveryRepository
	users      repository.UserRepository
	orders     *OrderService
	dispatcher events.Dispatcher
}

// DeliveryDependencies bundles collaborators.
type DeliveryDependencies struct {
	DeliveryRepo repository.DeliveryRepository
	UserRepo     repository.UserRepository
	Orders       *OrderService
	Dispatcher   events.Dispatcher
}

// NewDeliveryService creates the service.
func NewDeliveryService(deps DeliveryDependencies) *DeliveryService {
	return &DeliveryService{
		deliveries: deps.DeliveryRepo,
		users:      deps.UserRepo,
		orders:     deps.Orders,
		dispatcher: deps.Dispatcher,
	}
}

// Assign hands a ready order to an enabled delivery-staff member.
func (s *DeliveryService) Assign(ctx context.Context, actor events.Actor, req dto.AssignDeliveryRequest) (*domain.Delivery, error) {
	order, err := s.orders.Get(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusReady {
		return nil, apperrors.NewConflict(
			fmt.Sprintf("order is %s; only READY orders can be assigned", order.Status),
			map[string]any{"orderId": req.OrderID})
	}
	driver, err := s.users.GetByID(ctx, req.DeliveryStaffID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewValidationError("unknown driver", map[string]any{"deliveryStaffId": req.DeliveryStaffID})
		}
		return nil, apperrors.ToDomainError(err)
	}
	if driver.Role != domain.RoleDeliveryStaff || !driver.Enabled {
		return nil, apperrors.NewValidationError("user cannot take deliveries", map[string]any{"deliveryStaffId": req.DeliveryStaffID})
	}

	now := domain.NewTimestamp(time.Now().UTC())
	delivery := &domain.Delivery{
		OrderID:         order.ID,
		DeliveryStaffID: driver.ID,
		Status:          domain.DeliveryStatusAssigned,
		AssignedAt:      &now,
		Notes:           strings.TrimSpace(req.Notes),
	}
	if err := s.deliveries.Create(ctx, delivery); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict("order already has a driver", map[string]any{"orderId": order.ID})
		}
		return nil, apperrors.ToDomainError(err)
	}
	s.enrich(ctx, delivery)

	publish(ctx, s.dispatcher, events.Event{
		Type:    events.EventDeliveryAssigned,
		OrderID: order.ID,
		Actor:   actor,
		Payload: events.DeliveryAssignedPayload{Delivery: *delivery},
	})
	return delivery, nil
}

// UpdateStatus records delivery progress and mirrors it onto the order.
// Delivery staff may only move their own deliveries.
func (s *DeliveryService) UpdateStatus(ctx context.Context, actor events.Actor, id int64, status domain.DeliveryStatus) (*domain.Delivery, error) {
	delivery, err := s.deliveries.GetByID(ctx, id)
	if err != nil {
		return nil, repoError("delivery", id, err)
	}
	if actor.Role == domain.RoleDeliveryStaff && delivery.DeliveryStaffID != actor.UserID {
		return nil, apperrors.NewForbidden("delivery belongs to another driver")
	}
	if delivery.Status == status {
		s.enrich(ctx, delivery)
		return delivery, nil
	}
	if !slices.Contains(deliveryTransitions[delivery.Status], status) {
		return nil, apperrors.NewConflict(
			fmt.Sprintf("cannot move delivery from %s to %s", delivery.Status, status),
			map[string]any{"id": id})
	}

	if next, ok := orderStatusFor(status); ok {
		if _, err := s.orders.UpdateStatus(ctx, actor, delivery.OrderID, next); err != nil {
			return nil, err
		}
	}

	old := delivery.Status
	delivery.Status = status
	if status == domain.DeliveryStatusDelivered {
		now := domain.NewTimestamp(time.Now().UTC())
		delivery.DeliveredAt = &now
	}
	if err := s.deliveries.Update(ctx, delivery); err != nil {
		return nil, repoError("delivery", id, err)
	}
	s.enrich(ctx, delivery)

	publish(ctx, s.dispatcher, events.Event{
		Type:    events.EventDeliveryStatusChanged,
		OrderID: delivery.OrderID,
		Actor:   actor,
		Payload: events.DeliveryStatusChangedPayload{OldStatus: old, NewStatus: status, Delivery: *delivery},
	})
	return delivery, nil
}

// orderStatusFor maps delivery progress onto the order lifecycle.
func orderStatusFor(status domain.DeliveryStatus) (domain.OrderStatus, bool) {
	switch status {
	case domain.DeliveryStatusPickedUp:
		return domain.OrderStatusOutForDelivery, true
	case domain.DeliveryStatusDelivered:
		return domain.OrderStatusDelivered, true
	}
	return "", false
}

// List returns deliveries matching filter.
func (s *DeliveryService) List(ctx context.Context, filter repository.DeliveryFilter) ([]domain.Delivery, error) {
	deliveries, err := s.deliveries.List(ctx, filter)
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}
	for i := range deliveries {
		s.enrich(ctx, &deliveries[i])
	}
	return deliveries, nil
}

// Mine returns the deliveries assigned to one driver.
func (s *DeliveryService) Mine(ctx context.Context, driverID int64) ([]domain.Delivery, error) {
	return s.List(ctx, repository.DeliveryFilter{DeliveryStaffID: driverID})
}

// enrich attaches the order and driver profile. Missing references are left nil.
func (s *DeliveryService) enrich(ctx context.Context, d *domain.Delivery) {
	if order, err := s.orders.Get(ctx, d.OrderID); err == nil {
		d.Order = order
	}
	if driver, err := s.users.GetByID(ctx, d.DeliveryStaffID); err == nil {
		profile := driver.Profile()
		d.DeliveryStaff = &profile
	}
}
