package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-backoffice/internal/api/dto"
	"github.com/spec-kit/restaurant-backoffice/internal/observability"
	apperrors "github.com/spec-kit/restaurant-backoffice/pkg/util"
)

func newTestApp(metrics *observability.Metrics) *fiber.App {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	app.Get("/conflict", func(c *fiber.Ctx) error {
		return apperrors.NewConflict("order already assigned", map[string]any{"orderId": 7})
	})
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("boom")
	})
	app.Get("/teapot", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})
	return app
}

func get(t *testing.T, app *fiber.App, path string) (int, dto.Envelope[map[string]any]) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var env dto.Envelope[map[string]any]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestDomainErrorRendersEnvelope(t *testing.T) {
	metrics := observability.NewMetrics()
	status, env := get(t, newTestApp(metrics), "/conflict")

	assert.Equal(t, http.StatusConflict, status)
	assert.False(t, env.Success)
	assert.Equal(t, "order already assigned", env.Error)
	assert.EqualValues(t, 7, env.Data["orderId"])
	assert.NotEmpty(t, metrics.Snapshot().Errors)
}

func TestPanicBecomesInternalError(t *testing.T) {
	status, env := get(t, newTestApp(nil), "/panic")

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", env.Message)
}

func TestFiberErrorsKeepTheirStatus(t *testing.T) {
	app := newTestApp(nil)

	status, env := get(t, app, "/teapot")
	assert.Equal(t, fiber.StatusTeapot, status)
	assert.Equal(t, "short and stout", env.Error)

	status, _ = get(t, app, "/missing")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHandlerDeadlineBecomesTimeout(t *testing.T) {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), nil, time.Millisecond)
	app.Get("/slow", func(c *fiber.Ctx) error {
		<-c.UserContext().Done()
		return fmt.Errorf("list orders: %w", c.UserContext().Err())
	})

	status, env := get(t, app, "/slow")
	assert.Equal(t, http.StatusGatewayTimeout, status)
	assert.Equal(t, "request timed out", env.Error)
}
