package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" kitchen_staff ")
	require.NoError(t, err)
	assert.Equal(t, RoleKitchenStaff, r)

	_, err = ParseRole("CHEF")
	require.Error(t, err)

	assert.True(t, RoleManager.Supervisor())
	assert.False(t, RoleDeliveryStaff.Supervisor())
}

func TestTimestampLayouts(t *testing.T) {
	var payload struct {
		A Timestamp `json:"a"`
		B Timestamp `json:"b"`
		C Timestamp `json:"c"`
	}
	err := json.Unmarshal([]byte(`{"a":"2024-05-01T12:30:00Z","b":"2024-05-01T12:30:00","c":null}`), &payload)
	require.NoError(t, err)

	want := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	assert.True(t, payload.A.Equal(want))
	assert.True(t, payload.B.Equal(want))
	assert.True(t, payload.C.IsZero())

	require.Error(t, json.Unmarshal([]byte(`{"a":"yesterday"}`), &payload))
}

func TestDecodeEvent(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"type":"ORDER_CREATED","message":"New order #42","data":{"orderId":42},"timestamp":"2024-05-01T12:30:00"}`))
	require.NoError(t, err)
	assert.Equal(t, EventOrderCreated, ev.Kind)
	assert.Equal(t, "New order #42", ev.Message)
	assert.Equal(t, int64(42), ev.Refs().OrderID)

	_, err = DecodeEvent([]byte(`not json`))
	require.Error(t, err)

	_, err = DecodeEvent([]byte(`{"message":"no kind"}`))
	require.Error(t, err)

	odd, err := DecodeEvent([]byte(`{"type":"SOMETHING_NEW","message":"x","data":[1,2]}`))
	require.NoError(t, err)
	assert.Zero(t, odd.Refs())
}

func TestEventRefsAreLenient(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"type":"ORDER_STATUS_CHANGED","message":"x","data":{"orderId":"17","deliveryId":3,"status":"READY"}}`))
	require.NoError(t, err)
	assert.Equal(t, EventRefs{OrderID: 17, DeliveryID: 3, Status: "READY"}, ev.Refs())

	partial, err := DecodeEvent([]byte(`{"type":"ORDER_STATUS_CHANGED","message":"x","data":{"orderId":{"id":1},"status":"PREPARING"}}`))
	require.NoError(t, err)
	assert.Equal(t, EventRefs{Status: "PREPARING"}, partial.Refs())
}

