package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// EventKind tags a realtime event.
type EventKind string

const (
	EventOrderCreated               EventKind = "ORDER_CREATED"
	EventOrderUpdated               EventKind = "ORDER_UPDATED"
	EventOrderStatusChanged         EventKind = "ORDER_STATUS_CHANGED"
	EventDeliveryAssigned           EventKind = "DELIVERY_ASSIGNED"
	EventDeliveryStatusChanged      EventKind = "DELIVERY_STATUS_CHANGED"
	EventKitchenNewOrder            EventKind = "KITCHEN_NEW_ORDER"
	EventDeliveryReadyOrder         EventKind = "DELIVERY_READY_ORDER"
	EventDeliveryStaffNewAssignment EventKind = "DELIVERY_STAFF_NEW_ASSIGNMENT"
	EventSystemAlert                EventKind = "SYSTEM_ALERT"
	EventUserNotification           EventKind = "USER_NOTIFICATION"
)

// RealtimeEvent is one inbound notification. Events are immutable and never
// persisted.
type RealtimeEvent struct {
	Kind      EventKind       `json:"type"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp Timestamp       `json:"timestamp"`
}

// EventRefs are the identifiers commonly carried in an event payload.
type EventRefs struct {
	OrderID    int64  `json:"orderId,omitempty"`
	DeliveryID int64  `json:"deliveryId,omitempty"`
	Status     string `json:"status,omitempty"`
}

// Refs decodes the well-known identifiers from the payload. Each field is
// read on its own, ids may arrive as numbers or numeric strings, and a field
// that cannot be read is left zero. A non-object payload yields the zero value.
func (e RealtimeEvent) Refs() EventRefs {
	var fields map[string]json.RawMessage
	if len(e.Data) == 0 || json.Unmarshal(e.Data, &fields) != nil {
		return EventRefs{}
	}
	return EventRefs{
		OrderID:    lenientID(fields["orderId"]),
		DeliveryID: lenientID(fields["deliveryId"]),
		Status:     lenientString(fields["status"]),
	}
}

func lenientID(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0
		}
		n = json.Number(strings.TrimSpace(s))
	}
	id, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func lenientString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// DecodeEvent parses a wire payload into a RealtimeEvent.
func DecodeEvent(body []byte) (RealtimeEvent, error) {
	var ev RealtimeEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return RealtimeEvent{}, fmt.Errorf("decode realtime event: %w", err)
	}
	if ev.Kind == "" {
		return RealtimeEvent{}, fmt.Errorf("decode realtime event: missing type")
	}
	return ev, nil
}
