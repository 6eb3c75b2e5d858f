package dto

import "github.com/spec-kit/restaurant-backoffice/internal/domain"

// OrderItemRequest is one line of a new order.
type OrderItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// CreateOrderRequest payload for new orders.
type CreateOrderRequest struct {
	CustomerName    string             `json:"customerName"`
	CustomerPhone   string             `json:"customerPhone,omitempty"`
	CustomerAddress string             `json:"customerAddress,omitempty"`
	Notes           string             `json:"notes,omitempty"`
	Items           []OrderItemRequest `json:"items"`
}

// StatusRequest moves an order or delivery to a new status.
type StatusRequest struct {
	Status string `json:"status"`
}

// AssignDeliveryRequest binds an order to a driver.
type AssignDeliveryRequest struct {
	OrderID         int64  `json:"orderId"`
	DeliveryStaffID int64  `json:"deliveryStaffId"`
	Notes           string `json:"notes,omitempty"`
}

// CategoryRequest creates or updates a category.
type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ProductRequest creates or updates a product.
type ProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	CategoryID  int64   `json:"categoryId"`
	Available   *bool   `json:"available,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

// OrderList is the page type list endpoints return for orders.
type OrderList = Page[domain.OrderRecord]
