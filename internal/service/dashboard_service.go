package service

import (
	"context"
	"time"

	"github.com/spec-kit/restaurant-backoffice/internal/domain"
	"github.com/spec-kit/restaurant-backoffice/internal/repository"
	apperrors "github.com/spec-kit/restaurant-backoffice/pkg/util"
)

// DashboardService aggregates the supervisor summary.
type DashboardService struct {
	users   repository.UserRepository
	catalog repository.CatalogRepository
	orders  repository.OrderRepository
	now     func() time.Time
}

// NewDashboardService constructs the service.
func NewDashboardService(users repository.UserRepository, catalog repository.CatalogRepository, orders repository.OrderRepository) *DashboardService {
	return &DashboardService{users: users, catalog: catalog, orders: orders, now: time.Now}
}

// Stats counts accounts, products and orders. Revenue excludes cancelled
// orders and is bucketed by the server's local day and month.
func (s *DashboardService) Stats(ctx context.Context) (domain.DashboardStats, error) {
	users, err := s.users.List(ctx, repository.UserFilter{})
	if err != nil {
		return domain.DashboardStats{}, apperrors.ToDomainError(err)
	}
	products, err := s.catalog.ListProducts(ctx, repository.ProductFilter{})
	if err != nil {
		return domain.DashboardStats{}, apperrors.ToDomainError(err)
	}
	orders, err := s.orders.List(ctx, repository.OrderFilter{})
	if err != nil {
		return domain.DashboardStats{}, apperrors.ToDomainError(err)
	}

	stats := domain.DashboardStats{
		TotalUsers:    len(users),
		TotalProducts: len(products),
		TotalOrders:   len(orders),
	}
	now := s.now()
	year, month, day := now.Date()
	for _, o := range orders {
		switch o.Status {
		case domain.OrderStatusPending:
			stats.PendingOrders++
		case domain.OrderStatusOutForDelivery:
			stats.ActiveDeliveries++
		case domain.OrderStatusCancelled:
			continue
		}
		cy, cm, cd := o.CreatedAt.In(now.Location()).Date()
		if cy == year && cm == month {
			stats.MonthlyRevenue += o.TotalAmount
			if cd == day {
				stats.TodayRevenue += o.TotalAmount
			}
		}
	}
	return stats, nil
}
