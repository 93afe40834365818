package api

import (
	"context"
	"fmt"
	"slices"

	"github.com/nhle/crmterm/internal/model"
)

// ListUsers returns every operator account.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var out list[model.User]
	if err := c.get(ctx, "/users", nil, &out); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return out, nil
}

// ListRoles returns every role.
func (c *Client) ListRoles(ctx context.Context) ([]model.Role, error) {
	var out list[model.Role]
	if err := c.get(ctx, "/roles", nil, &out); err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	return out, nil
}

// Permissions is the set of permission names granted to the session user.
type Permissions []string

// Has reports whether the named permission was granted.
func (p Permissions) Has(name string) bool {
	return slices.Contains(p, name)
}

// Session is the authenticated user and their permissions.
type Session struct {
	User        model.User
	Permissions Permissions
}

// CurrentUser returns the user the token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*Session, error) {
	var raw model.Session
	if err := c.get(ctx, "/auth/me", nil, &raw); err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}
	return &Session{User: raw.User, Permissions: Permissions(raw.Permissions)}, nil
}
