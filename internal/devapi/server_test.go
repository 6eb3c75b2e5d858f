package devapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-backoffice/internal/api/dto"
	"github.com/spec-kit/restaurant-backoffice/internal/config"
	"github.com/spec-kit/restaurant-backoffice/internal/domain"
)

func testConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Name: "devapi-test", Version: "test"},
		API:      config.APIConfig{RequestTimeoutSeconds: 5},
		Realtime: config.RealtimeConfig{Path: "/ws"},
		Auth:     config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 60, BcryptCost: 4},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv := NewServer(Dependencies{Config: testConfig(), Logger: zap.NewNop()})
	require.NoError(t, srv.Seed(context.Background(), DefaultSeedAccounts))
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) dto.Envelope[T] {
	t.Helper()
	defer resp.Body.Close()
	var env dto.Envelope[T]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func login(t *testing.T, srv *Server, username, password string) dto.AuthResponse {
	t.Helper()
	resp := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decode[dto.AuthResponse](t, resp)
	require.True(t, env.Success)
	return env.Data
}

func TestLoginReturnsTokenAndProfile(t *testing.T) {
	srv := newTestServer(t)

	auth := login(t, srv, "admin", "admin123")
	assert.NotEmpty(t, auth.Token)
	assert.Equal(t, "admin", auth.User.Username)
	assert.Equal(t, domain.RoleAdmin, auth.User.Role)
}

func TestLoginWrongPasswordIsUnauthorizedEnvelope(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: "admin", Password: "nope"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	env := decode[any](t, resp)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv, http.MethodGet, "/api/orders", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, decode[any](t, resp).Success)
}

func TestUnknownRouteIsNotFoundEnvelope(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv, http.MethodGet, "/nowhere", "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, decode[any](t, resp).Success)
}

func TestRoleGates(t *testing.T) {
	srv := newTestServer(t)
	kitchen := login(t, srv, "kitchen", "kitchen123").Token
	driver := login(t, srv, "driver", "driver123").Token

	resp := doJSON(t, srv, http.MethodGet, "/api/users", kitchen, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, srv, http.MethodGet, "/api/orders/kitchen", driver, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, srv, http.MethodGet, "/api/users?role=DELIVERY_STAFF", driver, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[dto.Page[domain.Profile]](t, resp).Data
	require.Len(t, page.Content, 1)
	assert.Equal(t, "driver", page.Content[0].Username)

	resp = doJSON(t, srv, http.MethodPost, "/api/deliveries/assign", driver, dto.AssignDeliveryRequest{OrderID: 1, DeliveryStaffID: 1})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	admin := login(t, srv, "admin", "admin123").Token
	kitchen := login(t, srv, "kitchen", "kitchen123").Token

	resp := doJSON(t, srv, http.MethodGet, "/api/products", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	products := decode[dto.Page[domain.Product]](t, resp).Data
	require.NotEmpty(t, products.Content)

	resp = doJSON(t, srv, http.MethodPost, "/api/orders/create", admin, dto.CreateOrderRequest{
		CustomerName: "Ada",
		Items:        []dto.OrderItemRequest{{ProductID: products.Content[0].ID, Quantity: 2}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	order := decode[domain.OrderRecord](t, resp).Data
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.InDelta(t, 2*products.Content[0].Price, order.TotalAmount, 0.001)

	resp = doJSON(t, srv, http.MethodPut, "/api/orders/"+itoa(order.ID)+"/status", kitchen, dto.StatusRequest{Status: "CONFIRMED"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, srv, http.MethodGet, "/api/orders/kitchen?page=0&size=10", kitchen, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	board := decode[dto.Page[domain.OrderRecord]](t, resp).Data
	require.Len(t, board.Content, 1)
	assert.Equal(t, domain.OrderStatusConfirmed, board.Content[0].Status)
	assert.Equal(t, 10, board.Size)

	resp = doJSON(t, srv, http.MethodPut, "/api/orders/"+itoa(order.ID)+"/status", admin, dto.StatusRequest{Status: "DELIVERED"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.False(t, decode[any](t, resp).Success)

	resp = doJSON(t, srv, http.MethodPut, "/api/orders/"+itoa(order.ID)+"/status", admin, dto.StatusRequest{Status: "LOST"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestHealthLive(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[map[string]any](t, resp).Success)

	resp = doJSON(t, srv, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "disabled", decode[map[string]any](t, resp).Data["postgres"])
}

func TestSeedIsIdempotent(t *testing.T) {
	srv := newTestServer(t)
	require.NoError(t, srv.Seed(context.Background(), DefaultSeedAccounts))

	categories, err := srv.catalog.Categories(context.Background())
	require.NoError(t, err)
	assert.Len(t, categories, 2)
}
