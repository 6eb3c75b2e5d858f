package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/restaurant-backoffice/internal/api/dto"
	"github.com/spec-kit/restaurant-backoffice/internal/domain"
	"github.com/spec-kit/restaurant-backoffice/internal/repository"
	"github.com/spec-kit/restaurant-backoffice/internal/service"
)

// OrdersHandler serves the order endpoints.
type OrdersHandler struct {
	orders *service.OrderService
}

// NewOrdersHandler constructs handler.
func NewOrdersHandler(orderService *service.OrderService) *OrdersHandler {
	return &OrdersHandler{orders: orderService}
}

// List GET /api/orders. status takes one tag or a comma separated list.
func (h *OrdersHandler) List(c *fiber.Ctx) error {
	filter := repository.OrderFilter{Search: c.Query("search")}
	for _, raw := range statuses(c.Query("status")) {
		status, err := service.ParseOrderStatus(raw)
		if err != nil {
			return err
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	orders, err := h.orders.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return h.page(c, orders)
}

// Kitchen GET /api/orders/kitchen.
func (h *OrdersHandler) Kitchen(c *fiber.Ctx) error {
	orders, err := h.orders.Kitchen(c.UserContext())
	if err != nil {
		return err
	}
	return h.page(c, orders)
}

// DeliveryQueue GET /api/orders/delivery.
func (h *OrdersHandler) DeliveryQueue(c *fiber.Ctx) error {
	orders, err := h.orders.DeliveryQueue(c.UserContext())
	if err != nil {
		return err
	}
	return h.page(c, orders)
}

func (h *OrdersHandler) page(c *fiber.Ctx, orders []domain.OrderRecord) error {
	page, size := paging(c)
	return c.JSON(dto.OK("", dto.NewPage(orders, page, size)))
}

// Get GET /api/orders/:id.
func (h *OrdersHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	order, err := h.orders.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("", order))
}

// Create POST /api/orders/create.
func (h *OrdersHandler) Create(c *fiber.Ctx) error {
	who, err := actor(c)
	if err != nil {
		return err
	}
	var req dto.CreateOrderRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	order, err := h.orders.Create(c.UserContext(), who, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OK("Order created successfully", order))
}

// UpdateStatus PUT /api/orders/:id/status.
func (h *OrdersHandler) UpdateStatus(c *fiber.Ctx) error {
	who, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.StatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	status, err := service.ParseOrderStatus(req.Status)
	if err != nil {
		return err
	}
	order, err := h.orders.UpdateStatus(c.UserContext(), who, id, status)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("Order status updated", order))
}
