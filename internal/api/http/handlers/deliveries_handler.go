package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/restaurant-backoffice/internal/api/dto"
	"github.com/spec-kit/restaurant-backoffice/internal/repository"
	"github.com/spec-kit/restaurant-backoffice/internal/service"
)

// DeliveriesHandler serves driver assignment and delivery progress.
type DeliveriesHandler struct {
	deliveries *service.DeliveryService
}

// NewDeliveriesHandler constructs handler.
func NewDeliveriesHandler(deliveryService *service.DeliveryService) *DeliveriesHandler {
	return &DeliveriesHandler{deliveries: deliveryService}
}

// List GET /api/deliveries.
func (h *DeliveriesHandler) List(c *fiber.Ctx) error {
	staffID, err := queryID(c, "deliveryStaffId")
	if err != nil {
		return err
	}
	filter := repository.DeliveryFilter{DeliveryStaffID: staffID}
	for _, raw := range statuses(c.Query("status")) {
		status, err := service.ParseDeliveryStatus(raw)
		if err != nil {
			return err
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	deliveries, err := h.deliveries.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	page, size := paging(c)
	return c.JSON(dto.OK("", dto.NewPage(deliveries, page, size)))
}

// Mine GET /api/deliveries/my.
func (h *DeliveriesHandler) Mine(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	deliveries, err := h.deliveries.Mine(c.UserContext(), p.UserID)
	if err != nil {
		return err
	}
	page, size := paging(c)
	return c.JSON(dto.OK("", dto.NewPage(deliveries, page, size)))
}

// Assign POST /api/deliveries/assign.
func (h *DeliveriesHandler) Assign(c *fiber.Ctx) error {
	who, err := actor(c)
	if err != nil {
		return err
	}
	var req dto.AssignDeliveryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	delivery, err := h.deliveries.Assign(c.UserContext(), who, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OK("Delivery assigned successfully", delivery))
}

// UpdateStatus PUT /api/deliveries/:id/status.
func (h *DeliveriesHandler) UpdateStatus(c *fiber.Ctx) error {
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
	status, err := service.ParseDeliveryStatus(req.Status)
	if err != nil {
		return err
	}
	delivery, err := h.deliveries.UpdateStatus(c.UserContext(), who, id, status)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("Delivery status updated", delivery))
}
