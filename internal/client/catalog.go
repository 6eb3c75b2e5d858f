package client

import (
	"context"
	"net/http"

	"github.com/spec-kit/restaurant-backoffice/internal/api/dto"
	"github.com/spec-kit/restaurant-backoffice/internal/domain"
)

func (c *Client) Categories(ctx context.Context, q ListQuery) (dto.Page[domain.Category], error) {
	return getList[domain.Category](ctx, c, "/categories", q)
}

func (c *Client) Category(ctx context.Context, id int64) (domain.Category, error) {
	return call[domain.Category](ctx, c, http.MethodGet, idPath("/categories", id), nil)
}

func (c *Client) CreateCategory(ctx context.Context, req dto.CategoryRequest) (domain.Category, error) {
	cat, err := call[domain.Category](ctx, c, http.MethodPost, "/categories", req)
	if err != nil {
		return domain.Category{}, err
	}
	c.succeeded("Category created successfully")
	return cat, nil
}

func (c *Client) UpdateCategory(ctx context.Context, id int64, req dto.CategoryRequest) (domain.Category, error) {
	cat, err := call[domain.Category](ctx, c, http.MethodPut, idPath("/categories", id), req)
	if err != nil {
		return domain.Category{}, err
	}
	c.succeeded("Category updated successfully")
	return cat, nil
}

func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	if err := c.exec(ctx, http.MethodDelete, idPath("/categories", id), nil); err != nil {
		return err
	}
	c.succeeded("Category deleted successfully")
	return nil
}

func (c *Client) Products(ctx context.Context, q ListQuery) (dto.Page[domain.Product], error) {
	return getList[domain.Product](ctx, c, "/products", q)
}

func (c *Client) Product(ctx context.Context, id int64) (domain.Product, error) {
	return call[domain.Product](ctx, c, http.MethodGet, idPath("/products", id), nil)
}

func (c *Client) CreateProduct(ctx context.Context, req dto.ProductRequest) (domain.Product, error) {
	p, err := call[domain.Product](ctx, c, http.MethodPost, "/products", req)
	if err != nil {
		return domain.Product{}, err
	}
	c.succeeded("Product created successfully")
	return p, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id int64, req dto.ProductRequest) (domain.Product, error) {
	p, err := call[domain.Product](ctx, c, http.MethodPut, idPath("/products", id), req)
	if err != nil {
		return domain.Product{}, err
	}
	c.succeeded("Product updated successfully")
	return p, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	if err := c.exec(ctx, http.MethodDelete, idPath("/products", id), nil); err != nil {
		return err
	}
	c.succeeded("Product deleted successfully")
	return nil
}
