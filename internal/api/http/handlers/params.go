package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/restaurant-backoffice/internal/auth"
	"github.com/spec-kit/restaurant-backoffice/internal/events"
	apperrors "github.com/spec-kit/restaurant-backoffice/pkg/util"
)

func principal(c *fiber.Ctx) (*auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return p, nil
}

func actor(c *fiber.Ctx) (events.Actor, error) {
	p, err := principal(c)
	if err != nil {
		return events.Actor{}, err
	}
	return events.Actor{UserID: p.UserID, Role: p.Role}, nil
}

func pathID(c *fiber.Ctx) (int64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid id", map[string]any{"id": raw})
	}
	return id, nil
}

func queryID(c *fiber.Ctx, key string) (int64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, apperrors.NewValidationError("invalid "+key, map[string]any{key: raw})
	}
	return id, nil
}

// paging reads page and size. A missing size returns the whole list.
func paging(c *fiber.Ctx) (page, size int) {
	page = c.QueryInt("page", 0)
	size = c.QueryInt("size", 0)
	if page < 0 {
		page = 0
	}
	if size < 0 {
		size = 0
	}
	return page, size
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

// statuses splits a comma separated status query value.
func statuses(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
