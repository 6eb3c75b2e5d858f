package domain

import (
	"regexp"
	"strings"
)

// OrderStatus enumerates the order lifecycle.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "PENDING"
	OrderStatusConfirmed      OrderStatus = "CONFIRMED"
	OrderStatusPreparing      OrderStatus = "PREPARING"
	OrderStatusReady          OrderStatus = "READY"
	OrderStatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
)

// KitchenStatuses are the states shown on the kitchen board.
var KitchenStatuses = []OrderStatus{OrderStatusConfirmed, OrderStatusPreparing, OrderStatusReady}

// InKitchen reports whether the order is part of the kitchen workflow.
func (s OrderStatus) InKitchen() bool {
	for _, k := range KitchenStatuses {
		if s == k {
			return true
		}
	}
	return false
}

const (
	unknownCustomer = "N/A"
	unknownProduct  = "Unknown Product"
)

// OrderItem is a normalized order line.
type OrderItem struct {
	ID          int64   `json:"id,omitempty"`
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Subtotal    float64 `json:"subtotal"`
}

// Order is the canonical order produced by NormalizeOrder.
type Order struct {
	ID              int64       `json:"id"`
	OrderNumber     string      `json:"orderNumber,omitempty"`
	CustomerName    string      `json:"customerName"`
	CustomerPhone   string      `json:"customerPhone,omitempty"`
	CustomerAddress string      `json:"customerAddress,omitempty"`
	Notes           string      `json:"notes,omitempty"`
	Items           []OrderItem `json:"items"`
	Total           float64     `json:"totalAmount"`
	Status          OrderStatus `json:"status"`
	CreatedBy       *Profile    `json:"createdBy,omitempty"`
	CreatedAt       Timestamp   `json:"createdAt"`
	UpdatedAt       Timestamp   `json:"updatedAt"`
}

// OrderItemRecord is an order line as received from the backend, with every
// historical field spelling.
type OrderItemRecord struct {
	ID          int64    `json:"id,omitempty"`
	ProductID   int64    `json:"productId"`
	Product     *Product `json:"product,omitempty"`
	ProductName string   `json:"productName,omitempty"`
	Quantity    int      `json:"quantity"`
	Price       float64  `json:"price"`
	Subtotal    float64  `json:"subtotal,omitempty"`
}

// OrderRecord is an order as received from the backend. Several concepts have
// more than one source field depending on the backend version; NormalizeOrder
// collapses them.
type OrderRecord struct {
	ID              int64             `json:"id"`
	OrderNumber     string            `json:"orderNumber,omitempty"`
	CustomerName    string            `json:"customerName,omitempty"`
	CustomerPhone   string            `json:"customerPhone,omitempty"`
	CustomerAddress string            `json:"customerAddress,omitempty"`
	CustomerDetails string            `json:"customerDetails,omitempty"`
	Items           []OrderItemRecord `json:"items,omitempty"`
	OrderItems      []OrderItemRecord `json:"orderItems,omitempty"`
	TotalAmount     float64           `json:"totalAmount,omitempty"`
	TotalPrice      float64           `json:"totalPrice,omitempty"`
	Status          OrderStatus       `json:"status"`
	Notes           string            `json:"notes,omitempty"`
	CreatedBy       *Profile          `json:"createdBy,omitempty"`
	CreatedAt       Timestamp         `json:"createdAt"`
	UpdatedAt       Timestamp         `json:"updatedAt"`
}

// CustomerDetails is the parsed form of the legacy pipe-separated
// "Name: x | Phone: y | Address: z | Notes: w" string.
type CustomerDetails struct {
	Name    string
	Phone   string
	Address string
	Notes   string
}

var (
	detailsName    = regexp.MustCompile(`Name:\s*([^|]+)`)
	detailsPhone   = regexp.MustCompile(`Phone:\s*([^|]+)`)
	detailsAddress = regexp.MustCompile(`Address:\s*([^|]+)`)
	detailsNotes   = regexp.MustCompile(`Notes:\s*(.+)`)
)

// ParseCustomerDetails splits a legacy customer details string. Missing name
// yields "N/A"; other missing parts are empty.
func ParseCustomerDetails(raw string) CustomerDetails {
	out := CustomerDetails{Name: unknownCustomer}
	if raw == "" {
		return out
	}
	if name := firstGroup(detailsName, raw); name != "" {
		out.Name = name
	}
	out.Phone = firstGroup(detailsPhone, raw)
	out.Address = firstGroup(detailsAddress, raw)
	out.Notes = firstGroup(detailsNotes, raw)
	return out
}

func firstGroup(re *regexp.Regexp, raw string) string {
	m := re.FindStringSubmatch(raw)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// NormalizeOrder collapses an OrderRecord into the canonical Order.
//
// Fallback precedence:
//   - customer name: customerName, then the Name field of customerDetails, then "N/A"
//   - phone, address, notes: the explicit field, then customerDetails
//   - items: orderItems, then items
//   - total: totalPrice, then totalAmount, then 0
//   - item product name: product.name, then productName, then "Unknown Product"
func NormalizeOrder(rec OrderRecord) Order {
	details := ParseCustomerDetails(rec.CustomerDetails)

	order := Order{
		ID:              rec.ID,
		OrderNumber:     rec.OrderNumber,
		CustomerName:    firstNonEmpty(rec.CustomerName, details.Name),
		CustomerPhone:   firstNonEmpty(rec.CustomerPhone, details.Phone),
		CustomerAddress: firstNonEmpty(rec.CustomerAddress, details.Address),
		Notes:           firstNonEmpty(rec.Notes, details.Notes),
		Status:          rec.Status,
		CreatedBy:       rec.CreatedBy,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}

	switch {
	case rec.TotalPrice != 0:
		order.Total = rec.TotalPrice
	default:
		order.Total = rec.TotalAmount
	}

	items := rec.OrderItems
	if len(items) == 0 {
		items = rec.Items
	}
	order.Items = make([]OrderItem, 0, len(items))
	for _, it := range items {
		order.Items = append(order.Items, normalizeItem(it))
	}
	return order
}

func normalizeItem(it OrderItemRecord) OrderItem {
	name := it.ProductName
	if it.Product != nil && it.Product.Name != "" {
		name = it.Product.Name
	}
	if name == "" {
		name = unknownProduct
	}
	subtotal := it.Subtotal
	if subtotal == 0 {
		subtotal = it.Price * float64(it.Quantity)
	}
	productID := it.ProductID
	if productID == 0 && it.Product != nil {
		productID = it.Product.ID
	}
	return OrderItem{
		ID:          it.ID,
		ProductID:   productID,
		ProductName: name,
		Quantity:    it.Quantity,
		Price:       it.Price,
		Subtotal:    subtotal,
	}
}

// NormalizeOrders applies NormalizeOrder to every record.
func NormalizeOrders(recs []OrderRecord) []Order {
	out := make([]Order, 0, len(recs))
	for _, r := range recs {
		out = append(out, NormalizeOrder(r))
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
