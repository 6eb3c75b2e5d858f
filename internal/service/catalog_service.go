package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/restaurant-backoffice/internal/api/dto"
	"github.com/spec-kit/restaurant-backoffice/internal/domain"
	"github.com/spec-kit/restaurant-backoffice/internal/repository"
	apperrors "github.com/spec-kit/restaurant-backoffice/pkg/util"
)

// CatalogService manages menu categories and products.
type CatalogService struct {
	repo repository.CatalogRepository
}

// NewCatalogService constructs the service.
func NewCatalogService(repo repository.CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

// Categories lists every category.
func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

// Category returns one category.
func (s *CatalogService) Category(ctx context.Context, id int64) (*domain.Category, error) {
	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, repoError("category", id, err)
	}
	return c, nil
}

// CreateCategory validates and stores a category.
func (s *CatalogService) CreateCategory(ctx context.Context, req dto.CategoryRequest) (*domain.Category, error) {
	c := &domain.Category{Name: strings.TrimSpace(req.Name), Description: strings.TrimSpace(req.Description)}
	if c.Name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, repoError("category", 0, err)
	}
	return c, nil
}

// UpdateCategory replaces the category fields.
func (s *CatalogService) UpdateCategory(ctx context.Context, id int64, req dto.CategoryRequest) (*domain.Category, error) {
	c := &domain.Category{ID: id, Name: strings.TrimSpace(req.Name), Description: strings.TrimSpace(req.Description)}
	if c.Name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return nil, repoError("category", id, err)
	}
	return c, nil
}

// DeleteCategory removes a category that no product references.
func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	err := s.repo.DeleteCategory(ctx, id)
	if errors.Is(err, repository.ErrConflict) {
		return apperrors.NewConflict("category still has products", map[string]any{"id": id})
	}
	return repoError("category", id, err)
}

// Products lists products matching filter with their category attached.
func (s *CatalogService) Products(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, error) {
	products, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}
	for i := range products {
		if c, err := s.repo.GetCategory(ctx, products[i].CategoryID); err == nil {
			products[i].Category = c
		}
	}
	return products, nil
}

// Product returns one product.
func (s *CatalogService) Product(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, repoError("product", id, err)
	}
	return p, nil
}

// CreateProduct validates and stores a product.
func (s *CatalogService) CreateProduct(ctx context.Context, req dto.ProductRequest) (*domain.Product, error) {
	p, err := s.productFrom(ctx, 0, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, repoError("product", 0, err)
	}
	return p, nil
}

// UpdateProduct replaces the product fields.
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, req dto.ProductRequest) (*domain.Product, error) {
	p, err := s.productFrom(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, repoError("product", id, err)
	}
	return p, nil
}

// DeleteProduct removes a product.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	return repoError("product", id, s.repo.DeleteProduct(ctx, id))
}

func (s *CatalogService) productFrom(ctx context.Context, id int64, req dto.ProductRequest) (*domain.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	if req.Price < 0 {
		return nil, apperrors.NewValidationError("price must not be negative", nil)
	}
	if _, err := s.repo.GetCategory(ctx, req.CategoryID); err != nil {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"categoryId": req.CategoryID})
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	return &domain.Product{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		Available:   &available,
		ImageURL:    req.ImageURL,
	}, nil
}
