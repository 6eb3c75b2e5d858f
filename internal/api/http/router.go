package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/restaurant-backoffice/internal/api/http/handlers"
	"github.com/spec-kit/restaurant-backoffice/internal/auth"
	"github.com/spec-kit/restaurant-backoffice/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Catalog        *handlers.CatalogHandler
	Orders         *handlers.OrdersHandler
	Deliveries     *handlers.DeliveriesHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
}

var (
	kitchenRoles  = append([]domain.Role{domain.RoleKitchenStaff}, auth.Supervisors...)
	deliveryRoles = append([]domain.Role{domain.RoleDeliveryStaff}, auth.Supervisors...)
)

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	authed := cfg.AuthMiddleware.Handle
	supervisors := auth.RequireRole(auth.Supervisors...)

	authGroup := api.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/change-password", authed, auth.RequireRole(), cfg.Auth.ChangePassword)

	users := api.Group("/users", authed)
	users.Get("/", cfg.Users.List)
	users.Get("/:id", supervisors, cfg.Users.Get)
	users.Post("/", supervisors, cfg.Users.Create)
	users.Put("/:id", supervisors, cfg.Users.Update)
	users.Delete("/:id", supervisors, cfg.Users.Delete)

	categories := api.Group("/categories", authed)
	categories.Get("/", cfg.Catalog.ListCategories)
	categories.Get("/:id", cfg.Catalog.GetCategory)
	categories.Post("/", supervisors, cfg.Catalog.CreateCategory)
	categories.Put("/:id", supervisors, cfg.Catalog.UpdateCategory)
	categories.Delete("/:id", supervisors, cfg.Catalog.DeleteCategory)

	products := api.Group("/products", authed)
	products.Get("/", cfg.Catalog.ListProducts)
	products.Get("/:id", cfg.Catalog.GetProduct)
	products.Post("/", supervisors, cfg.Catalog.CreateProduct)
	products.Put("/:id", supervisors, cfg.Catalog.UpdateProduct)
	products.Delete("/:id", supervisors, cfg.Catalog.DeleteProduct)

	kitchen := auth.RequireRole(kitchenRoles...)
	delivery := auth.RequireRole(deliveryRoles...)

	orders := api.Group("/orders", authed)
	orders.Get("/", kitchen, cfg.Orders.List)
	orders.Get("/kitchen", kitchen, cfg.Orders.Kitchen)
	orders.Get("/delivery", delivery, cfg.Orders.DeliveryQueue)
	orders.Post("/create", kitchen, cfg.Orders.Create)
	orders.Get("/:id", auth.RequireRole(), cfg.Orders.Get)
	// The delivery board moves orders out for delivery and delivered.
	orders.Put("/:id/status", auth.RequireRole(), cfg.Orders.UpdateStatus)

	deliveries := api.Group("/deliveries", authed, delivery)
	deliveries.Get("/", cfg.Deliveries.List)
	deliveries.Get("/my", cfg.Deliveries.Mine)
	deliveries.Post("/assign", supervisors, cfg.Deliveries.Assign)
	deliveries.Put("/:id/status", cfg.Deliveries.UpdateStatus)

	api.Get("/dashboard/stats", authed, auth.RequireRole(), cfg.Dashboard.Stats)
}
