package devapi

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-backoffice/internal/api/dto"
	"github.com/spec-kit/restaurant-backoffice/internal/domain"
)

// SeedAccount is a development login created at startup.
type SeedAccount struct {
	Username string
	Password string
	Role     domain.Role
}

// DefaultSeedAccounts gives every role one login.
var DefaultSeedAccounts = []SeedAccount{
	{Username: "admin", Password: "admin123", Role: domain.RoleAdmin},
	{Username: "manager", Password: "manager123", Role: domain.RoleManager},
	{Username: "kitchen", Password: "kitchen123", Role: domain.RoleKitchenStaff},
	{Username: "driver", Password: "driver123", Role: domain.RoleDeliveryStaff},
}

var seedMenu = map[string][]dto.ProductRequest{
	"Pizza": {
		{Name: "Margherita", Price: 9.5},
		{Name: "Diavola", Price: 11},
	},
	"Drinks": {
		{Name: "Lemonade", Price: 3},
		{Name: "Espresso", Price: 2.2},
	},
}

// Seed creates the default accounts and, when the catalog is empty, a small
// menu. Existing accounts are left untouched.
func (s *Server) Seed(ctx context.Context, accounts []SeedAccount) error {
	for _, acc := range accounts {
		if _, err := s.auth.EnsureUser(ctx, acc.Username, acc.Password, acc.Role); err != nil {
			return fmt.Errorf("seed user %s: %w", acc.Username, err)
		}
	}

	existing, err := s.catalog.Categories(ctx)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for _, name := range []string{"Pizza", "Drinks"} {
		category, err := s.catalog.CreateCategory(ctx, dto.CategoryRequest{Name: name})
		if err != nil {
			return fmt.Errorf("seed category %s: %w", name, err)
		}
		for _, req := range seedMenu[name] {
			req.CategoryID = category.ID
			if _, err := s.catalog.CreateProduct(ctx, req); err != nil {
				return fmt.Errorf("seed product %s: %w", req.Name, err)
			}
		}
	}
	s.logger.Info("seeded development data", zap.Int("accounts", len(accounts)))
	return nil
}
