package events

import (
	"time"

	"github.com/spec-kit/restaurant-backoffice/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventOrderCreated          EventType = "order_created"
	EventOrderStatusChanged    EventType = "order_status_changed"
	EventDeliveryAssigned      EventType = "delivery_assigned"
	EventDeliveryStatusChanged EventType = "delivery_status_changed"
	EventSystemAlert           EventType = "system_alert"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID int64       `json:"user_id,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	OrderID   int64     `json:"order_id,omitempty"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// OrderCreatedPayload payload.
type OrderCreatedPayload struct {
	Order domain.OrderRecord `json:"order"`
}

// OrderStatusChangedPayload payload.
type OrderStatusChangedPayload struct {
	OldStatus domain.OrderStatus `json:"old_status"`
	NewStatus domain.OrderStatus `json:"new_status"`
	Order     domain.OrderRecord `json:"order"`
}

// DeliveryAssignedPayload payload.
type DeliveryAssignedPayload struct {
	Delivery domain.Delivery `json:"delivery"`
}

// DeliveryStatusChangedPayload payload.
type DeliveryStatusChangedPayload struct {
	OldStatus domain.DeliveryStatus `json:"old_status"`
	NewStatus domain.DeliveryStatus `json:"new_status"`
	Delivery  domain.Delivery       `json:"delivery"`
}

// SystemAlertPayload payload.
type SystemAlertPayload struct {
	Message string `json:"message"`
}
