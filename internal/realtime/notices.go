package realtime

import (
	"fmt"

	"github.com/spec-kit/restaurant-backoffice/internal/domain"
	"github.com/spec-kit/restaurant-backoffice/internal/notify"
)

const (
	noticeConnected   = "Real-time connection established"
	noticeFailed      = "Failed to establish real-time connection"
	noticeReconnectFm = "Connection lost. Reconnecting... (%d/%d)"
)

// noticeFor picks the operator-facing notice for an inbound event.
func noticeFor(ev domain.RealtimeEvent) notify.Notice {
	refs := ev.Refs()
	switch ev.Kind {
	case domain.EventOrderCreated:
		n := notify.Notice{Level: notify.LevelInfo, Title: "New Order: " + ev.Message}
		if refs.OrderID != 0 {
			n.Detail = fmt.Sprintf("Order #%d", refs.OrderID)
		}
		return n
	case domain.EventOrderStatusChanged:
		n := notify.Notice{Level: notify.LevelInfo, Title: "Order Status Updated: " + ev.Message}
		if refs.Status != "" {
			n.Detail = "Status: " + refs.Status
		}
		return n
	case domain.EventDeliveryAssigned:
		return notify.Notice{Level: notify.LevelSuccess, Title: "Delivery Assigned: " + ev.Message}
	case domain.EventKitchenNewOrder:
		return notify.Notice{
			Level:  notify.LevelWarning,
			Title:  "Kitchen Alert: " + ev.Message,
			Detail: "New order requires preparation",
		}
	case domain.EventDeliveryReadyOrder:
		return notify.Notice{Level: notify.LevelSuccess, Title: "Ready for Delivery: " + ev.Message}
	case domain.EventSystemAlert:
		return notify.Notice{Level: notify.LevelError, Title: "System Alert: " + ev.Message}
	default:
		return notify.Notice{Level: notify.LevelInfo, Title: ev.Message}
	}
}
