package repository

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/restaurant-backoffice/internal/domain"
)

// ProductFilter narrows product listings.
type ProductFilter struct {
	CategoryID int64
	Search     string
}

// CatalogRepository stores menu categories and products.
type CatalogRepository interface {
	CreateCategory(ctx context.Context, c *domain.Category) error
	UpdateCategory(ctx context.Context, c *domain.Category) error
	DeleteCategory(ctx context.Context, id int64) error
	GetCategory(ctx context.Context, id int64) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)

	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
}

type memoryCatalogRepository struct {
	categories *memTable[domain.Category]
	products   *memTable[domain.Product]
}

// NewMemoryCatalogRepository keeps the menu in process memory.
func NewMemoryCatalogRepository() CatalogRepository {
	return &memoryCatalogRepository{
		categories: newMemTable[domain.Category](),
		products:   newMemTable[domain.Product](),
	}
}

func stamp() *domain.Timestamp {
	ts := domain.NewTimestamp(time.Now().UTC())
	return &ts
}

func (r *memoryCatalogRepository) CreateCategory(_ context.Context, c *domain.Category) error {
	return r.categories.insert(func(id int64) (domain.Category, error) {
		c.ID = id
		c.CreatedAt = stamp()
		c.UpdatedAt = c.CreatedAt
		return *c, nil
	})
}

func (r *memoryCatalogRepository) UpdateCategory(_ context.Context, c *domain.Category) error {
	_, err := r.categories.update(c.ID, func(old domain.Category) (domain.Category, error) {
		c.CreatedAt = old.CreatedAt
		c.UpdatedAt = stamp()
		return *c, nil
	})
	return err
}

// DeleteCategory refuses to orphan products.
func (r *memoryCatalogRepository) DeleteCategory(_ context.Context, id int64) error {
	inUse := r.products.scan(func(p domain.Product) bool { return p.CategoryID == id })
	if len(inUse) > 0 {
		return ErrConflict
	}
	return r.categories.remove(id)
}

func (r *memoryCatalogRepository) GetCategory(_ context.Context, id int64) (*domain.Category, error) {
	c, ok := r.categories.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (r *memoryCatalogRepository) ListCategories(context.Context) ([]domain.Category, error) {
	return r.categories.scan(nil), nil
}

func (r *memoryCatalogRepository) CreateProduct(_ context.Context, p *domain.Product) error {
	return r.products.insert(func(id int64) (domain.Product, error) {
		p.ID = id
		p.CreatedAt = stamp()
		p.UpdatedAt = p.CreatedAt
		return *p, nil
	})
}

func (r *memoryCatalogRepository) UpdateProduct(_ context.Context, p *domain.Product) error {
	_, err := r.products.update(p.ID, func(old domain.Product) (domain.Product, error) {
		p.CreatedAt = old.CreatedAt
		p.UpdatedAt = stamp()
		return *p, nil
	})
	return err
}

func (r *memoryCatalogRepository) DeleteProduct(_ context.Context, id int64) error {
	return r.products.remove(id)
}

func (r *memoryCatalogRepository) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := r.products.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r *memoryCatalogRepository) ListProducts(_ context.Context, filter ProductFilter) ([]domain.Product, error) {
	term := strings.ToLower(strings.TrimSpace(filter.Search))
	return r.products.scan(func(p domain.Product) bool {
		if filter.CategoryID > 0 && p.CategoryID != filter.CategoryID {
			return false
		}
		return term == "" || strings.Contains(strings.ToLower(p.Name), term)
	}), nil
}
