package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-backoffice/internal/domain"
	"github.com/spec-kit/restaurant-backoffice/internal/events"
	"github.com/spec-kit/restaurant-backoffice/internal/realtime"
)

// Publisher delivers a realtime event to the subscribers of a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, ev domain.RealtimeEvent) error
}

// NotificationService turns domain events into realtime notifications.
type NotificationService struct {
	dispatcher events.Dispatcher
	publisher  Publisher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, publisher Publisher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil || n.publisher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventOrderCreated, n.handleOrderCreated)
	n.dispatcher.Subscribe(events.EventOrderStatusChanged, n.handleOrderStatusChanged)
	n.dispatcher.Subscribe(events.EventDeliveryAssigned, n.handleDeliveryAssigned)
	n.dispatcher.Subscribe(events.EventDeliveryStatusChanged, n.handleDeliveryStatusChanged)
	n.dispatcher.Subscribe(events.EventSystemAlert, n.handleSystemAlert)
}

// outbound is one notification bound for one topic.
type outbound struct {
	topic   string
	kind    domain.EventKind
	message string
}

func (n *NotificationService) handleOrderCreated(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.OrderCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	data := map[string]any{"orderId": p.Order.ID, "orderNumber": p.Order.OrderNumber, "status": p.Order.Status}
	return n.send(ctx, event, data, outbound{realtime.TopicOrders, domain.EventOrderCreated, fmt.Sprintf("New order #%d", p.Order.ID)})
}

func (n *NotificationService) handleOrderStatusChanged(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.OrderStatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	id := p.Order.ID
	out := []outbound{{realtime.TopicOrders, domain.EventOrderStatusChanged, fmt.Sprintf("Order #%d is now %s", id, p.NewStatus)}}
	switch {
	case p.NewStatus == domain.OrderStatusConfirmed:
		out = append(out, outbound{realtime.TopicKitchen, domain.EventKitchenNewOrder, fmt.Sprintf("Order #%d", id)})
	case p.OldStatus.InKitchen() || p.NewStatus.InKitchen():
		out = append(out, outbound{realtime.TopicKitchen, domain.EventOrderStatusChanged, fmt.Sprintf("Order #%d is now %s", id, p.NewStatus)})
	}
	if p.NewStatus == domain.OrderStatusReady {
		out = append(out,
			outbound{realtime.TopicDeliveries, domain.EventDeliveryReadyOrder, fmt.Sprintf("Order #%d", id)},
			outbound{realtime.TopicDeliveryStaff, domain.EventDeliveryReadyOrder, fmt.Sprintf("Order #%d", id)})
	}
	data := map[string]any{"orderId": id, "orderNumber": p.Order.OrderNumber, "status": p.NewStatus, "previousStatus": p.OldStatus}
	return n.send(ctx, event, data, out...)
}

func (n *NotificationService) handleDeliveryAssigned(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.DeliveryAssignedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	d := p.Delivery
	data := map[string]any{"orderId": d.OrderID, "deliveryId": d.ID, "deliveryStaffId": d.DeliveryStaffID, "status": d.Status}
	return n.send(ctx, event, data,
		outbound{realtime.TopicDeliveries, domain.EventDeliveryAssigned, fmt.Sprintf("Order #%d assigned to %s", d.OrderID, driverName(d))},
		outbound{realtime.TopicOrders, domain.EventDeliveryAssigned, fmt.Sprintf("Order #%d assigned to %s", d.OrderID, driverName(d))},
		outbound{realtime.TopicDeliveryStaff, domain.EventDeliveryStaffNewAssignment, fmt.Sprintf("Order #%d assigned", d.OrderID)},
		outbound{realtime.UserTopic(d.DeliveryStaffID), domain.EventUserNotification, fmt.Sprintf("You have been assigned order #%d", d.OrderID)},
	)
}

func (n *NotificationService) handleDeliveryStatusChanged(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.DeliveryStatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	d := p.Delivery
	data := map[string]any{"orderId": d.OrderID, "deliveryId": d.ID, "deliveryStaffId": d.DeliveryStaffID, "status": p.NewStatus}
	return n.send(ctx, event, data,
		outbound{realtime.TopicDeliveries, domain.EventDeliveryStatusChanged, fmt.Sprintf("Delivery for order #%d is %s", d.OrderID, p.NewStatus)})
}

func (n *NotificationService) handleSystemAlert(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.SystemAlertPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	return n.send(ctx, event, nil, outbound{realtime.TopicSystem, domain.EventSystemAlert, p.Message})
}

func (n *NotificationService) send(ctx context.Context, event events.Event, data map[string]any, out ...outbound) error {
	var raw json.RawMessage
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode event data: %w", err)
		}
		raw = encoded
	}
	ts := domain.NewTimestamp(event.Timestamp)

	var firstErr error
	for _, o := range out {
		ev := domain.RealtimeEvent{Kind: o.kind, Message: o.message, Data: raw, Timestamp: ts}
		if err := n.publisher.Publish(ctx, o.topic, ev); err != nil {
			n.logger.Warn("realtime publish failed",
				zap.String("topic", o.topic),
				zap.String("kind", string(o.kind)),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		n.logger.Debug("realtime event published",
			zap.String("event_id", event.ID),
			zap.String("topic", o.topic),
			zap.String("kind", string(o.kind)))
	}
	return firstErr
}

func driverName(d domain.Delivery) string {
	if d.DeliveryStaff != nil && d.DeliveryStaff.Username != "" {
		return d.DeliveryStaff.Username
	}
	return fmt.Sprintf("driver #%d", d.DeliveryStaffID)
}
