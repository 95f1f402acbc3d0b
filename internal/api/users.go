package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gudangapp/gudang/internal/model"
)

// UpdateUserResponse is the server's answer to a user patch. Redirect is
// set when a password created during the first-login flow should be
// followed by an automatic login.
type UpdateUserResponse struct {
	User     *model.User `json:"user,omitempty"`
	Redirect bool        `json:"redirect,omitempty"`
}

// ListUsers returns all staff accounts.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var out []model.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateUser creates a staff account.
func (c *Client) CreateUser(ctx context.Context, user model.NewUser) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodPost, "/users", user, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUser applies a partial patch to a user account.
func (c *Client) UpdateUser(ctx context.Context, id string, patch model.UpdateUser) (*UpdateUserResponse, error) {
	var out UpdateUserResponse
	if err := c.do(ctx, http.MethodPatch, "/users/"+url.PathEscape(id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUser deletes a staff account.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil)
}
