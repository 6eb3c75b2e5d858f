package client

import (
	"context"
	"net/http"

	"github.com/spec-kit/restaurant-backoffice/internal/api/dto"
	"github.com/spec-kit/restaurant-backoffice/internal/domain"
)

// Login exchanges credentials for a token. Failures are never surfaced as
// notices; the caller presents them.
func (c *Client) Login(ctx context.Context, username, password string) (dto.AuthResponse, error) {
	return call[dto.AuthResponse](ctx, c, http.MethodPost, loginPath, dto.LoginRequest{
		Username: username,
		Password: password,
	})
}

// Register creates an account. Like Login, failures are left to the caller.
func (c *Client) Register(ctx context.Context, req dto.RegisterRequest) (domain.Profile, error) {
	return call[domain.Profile](ctx, c, http.MethodPost, registerPath, req)
}

// ChangePassword updates the password of the signed-in operator.
func (c *Client) ChangePassword(ctx context.Context, req dto.ChangePasswordRequest) error {
	if err := c.exec(ctx, http.MethodPost, "/auth/change-password", req); err != nil {
		return err
	}
	c.succeeded("Password changed successfully")
	return nil
}
