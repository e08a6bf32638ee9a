package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"

	"github.com/groundedweb/groundedweb-go/models"
)

// Login authenticates the session with email and password and loads the
// current user. Rejected credentials surface as *PermissionError.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	opts := defaultReqOpts()
	opts.allowRefresh = false
	if err := c.do(ctx, http.MethodPost, c.endpointURL("auth/login"), body, nil, opts); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
			c.logger.Error("authentication failed",
				slog.String("email", email))
			return &PermissionError{
				URL:        apiErr.URL,
				StatusCode: apiErr.StatusCode,
				Reason:     "invalid email or password",
			}
		}
		return err
	}
	c.logger.Info("authenticated", slog.String("email", email))

	var user models.User
	if err := c.get(ctx, "auth/user", &user); err != nil {
		return fmt.Errorf("failed to fetch current user: %w", err)
	}
	c.mu.Lock()
	c.currentUser = &user
	c.mu.Unlock()
	return nil
}

// Logout ends the session server-side. The local session is cleared even
// when the request fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.post(ctx, "auth/logout", nil, nil)
	c.clearSession()
	if err != nil {
		c.logger.Error("logout request failed", slog.String("error", err.Error()))
		return err
	}
	c.logger.Info("logged out")
	return nil
}

// Refresh asks the API to renew the session's auth token. It reports
// success; failures are logged, not returned, since the follow-up request
// surfaces the real error.
func (c *Client) Refresh(ctx context.Context) bool {
	opts := defaultReqOpts()
	opts.allowRefresh = false
	if err := c.do(ctx, http.MethodPost, c.endpointURL("auth/token/refresh"), nil, nil, opts); err != nil {
		c.logger.Error("token refresh failed", slog.String("error", err.Error()))
		return false
	}
	return true
}

// clearSession drops the session cookies and the cached user.
func (c *Client) clearSession() {
	if c.hc.Jar != nil {
		if jar, err := cookiejar.New(nil); err == nil {
			c.hc.Jar = jar
		}
	}
	c.mu.Lock()
	c.currentUser = nil
	c.mu.Unlock()
}
