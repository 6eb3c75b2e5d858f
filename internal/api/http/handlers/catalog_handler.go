package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/restaurant-backoffice/internal/api/dto"
	"github.com/spec-kit/restaurant-backoffice/internal/repository"
	"github.com/spec-kit/restaurant-backoffice/internal/service"
)

// CatalogHandler serves menu categories and products.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalogService}
}

// ListCategories GET /api/categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.catalog.Categories(c.UserContext())
	if err != nil {
		return err
	}
	page, size := paging(c)
	return c.JSON(dto.OK("", dto.NewPage(categories, page, size)))
}

// GetCategory GET /api/categories/:id.
func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	category, err := h.catalog.Category(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("", category))
}

// CreateCategory POST /api/categories.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req dto.CategoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	category, err := h.catalog.CreateCategory(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OK("Category created successfully", category))
}

// UpdateCategory PUT /api/categories/:id.
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.CategoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	category, err := h.catalog.UpdateCategory(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("Category updated successfully", category))
}

// DeleteCategory DELETE /api/categories/:id.
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteCategory(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(dto.OK[any]("Category deleted successfully", nil))
}

// ListProducts GET /api/products.
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	categoryID, err := queryID(c, "categoryId")
	if err != nil {
		return err
	}
	products, err := h.catalog.Products(c.UserContext(), repository.ProductFilter{
		CategoryID: categoryID,
		Search:     c.Query("search"),
	})
	if err != nil {
		return err
	}
	page, size := paging(c)
	return c.JSON(dto.OK("", dto.NewPage(products, page, size)))
}

// GetProduct GET /api/products/:id.
func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	product, err := h.catalog.Product(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("", product))
}

// CreateProduct POST /api/products.
func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	var req dto.ProductRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	product, err := h.catalog.CreateProduct(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OK("Product created successfully", product))
}

// UpdateProduct PUT /api/products/:id.
func (h *CatalogHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.ProductRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	product, err := h.catalog.UpdateProduct(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("Product updated successfully", product))
}

// DeleteProduct DELETE /api/products/:id.
func (h *CatalogHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteProduct(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(dto.OK[any]("Product deleted successfully", nil))
}
