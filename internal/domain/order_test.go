package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCustomerDetails(t *testing.T) {
	d := ParseCustomerDetails("Name: Ana Lopez | Phone: 555-0100 | Address: 1 Main St | Notes: ring twice | please")
	assert.Equal(t, "Ana Lopez", d.Name)
	assert.Equal(t, "555-0100", d.Phone)
	assert.Equal(t, "1 Main St", d.Address)
	assert.Equal(t, "ring twice | please", d.Notes)

	empty := ParseCustomerDetails("")
	assert.Equal(t, "N/A", empty.Name)
	assert.Empty(t, empty.Phone)

	noName := ParseCustomerDetails("Phone: 1")
	assert.Equal(t, "N/A", noName.Name)
	assert.Equal(t, "1", noName.Phone)
}

func TestNormalizeOrderCustomerPrecedence(t *testing.T) {
	tests := []struct {
		name string
		rec  OrderRecord
		want string
	}{
		{"explicit field wins", OrderRecord{CustomerName: "Bo", CustomerDetails: "Name: Al"}, "Bo"},
		{"details fallback", OrderRecord{CustomerDetails: "Name: Al | Phone: 2"}, "Al"},
		{"nothing", OrderRecord{}, "N/A"},
		{"blank explicit field", OrderRecord{CustomerName: "  ", CustomerDetails: "Name: Al"}, "Al"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeOrder(tt.rec).CustomerName)
		})
	}
}

func TestNormalizeOrderItemsAndTotal(t *testing.T) {
	rec := OrderRecord{
		ID:          7,
		TotalAmount: 10,
		TotalPrice:  12.5,
		Items:       []OrderItemRecord{{ProductID: 1, Quantity: 1, Price: 1}},
		OrderItems: []OrderItemRecord{
			{Product: &Product{ID: 3, Name: "Soup"}, Quantity: 2, Price: 4},
			{ProductName: "Bread", Quantity: 1, Price: 2.5, Subtotal: 2.5},
			{Quantity: 1},
		},
		Status: OrderStatusPreparing,
	}

	order := NormalizeOrder(rec)
	assert.Equal(t, 12.5, order.Total)
	require.Len(t, order.Items, 3)
	assert.Equal(t, "Soup", order.Items[0].ProductName)
	assert.Equal(t, int64(3), order.Items[0].ProductID)
	assert.Equal(t, 8.0, order.Items[0].Subtotal)
	assert.Equal(t, "Bread", order.Items[1].ProductName)
	assert.Equal(t, "Unknown Product", order.Items[2].ProductName)

	legacy := NormalizeOrder(OrderRecord{TotalAmount: 10, Items: rec.Items})
	assert.Equal(t, 10.0, legacy.Total)
	assert.Len(t, legacy.Items, 1)

	none := NormalizeOrder(OrderRecord{})
	assert.Zero(t, none.Total)
	assert.NotNil(t, none.Items)
}

func TestOrderStatusInKitchen(t *testing.T) {
	assert.True(t, OrderStatusConfirmed.InKitchen())
	assert.True(t, OrderStatusReady.InKitchen())
	assert.False(t, OrderStatusPending.InKitchen())
	assert.False(t, OrderStatusDelivered.InKitchen())
}
