package domain

// DeliveryStatus enumerates the delivery lifecycle.
type DeliveryStatus string

const (
	DeliveryStatusAssigned  DeliveryStatus = "ASSIGNED"
	DeliveryStatusPickedUp  DeliveryStatus = "PICKED_UP"
	DeliveryStatusOnTheWay  DeliveryStatus = "ON_THE_WAY"
	DeliveryStatusDelivered DeliveryStatus = "DELIVERED"
	DeliveryStatusFailed    DeliveryStatus = "FAILED"
)

// Delivery links an order to the staff member delivering it.
type Delivery struct {
	ID              int64          `json:"id"`
	OrderID         int64          `json:"orderId"`
	Order           *OrderRecord   `json:"order,omitempty"`
	DeliveryStaffID int64          `json:"deliveryStaffId"`
	DeliveryStaff   *Profile       `json:"deliveryStaff,omitempty"`
	Status          DeliveryStatus `json:"status"`
	AssignedAt      *Timestamp     `json:"assignedAt,omitempty"`
	DeliveredAt     *Timestamp     `json:"deliveredAt,omitempty"`
	Notes           string         `json:"notes,omitempty"`
}

// DashboardStats summarizes the current business day for the dashboard.
type DashboardStats struct {
	TotalUsers       int     `json:"totalUsers"`
	TotalProducts    int     `json:"totalProducts"`
	TotalOrders      int     `json:"totalOrders"`
	PendingOrders    int     `json:"pendingOrders"`
	ActiveDeliveries int     `json:"activeDeliveries"`
	TodayRevenue     float64 `json:"todayRevenue"`
	MonthlyRevenue   float64 `json:"monthlyRevenue"`
}
