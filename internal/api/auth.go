package api

import (
	"context"
	"net/http"

	"github.com/gudangapp/gudang/internal/model"
)

// CheckUserResponse tells whether a named account exists and already has a
// password.
type CheckUserResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	PasswordExists bool   `json:"password_exists"`
}

// LoginResponse carries the session token issued on login. The session
// itself rides the cookie; the token is the persistent-storage fallback.
type LoginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type checkUserRequest struct {
	Name string `json:"name"`
}

type loginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// CheckUser asks whether an account with the given name exists.
func (c *Client) CheckUser(ctx context.Context, name string) (*CheckUserResponse, error) {
	var out CheckUserResponse
	if err := c.do(ctx, http.MethodPost, "/check-user", checkUserRequest{Name: name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates with name and password. On success the session cookie
// is stored in the jar and the returned token is kept as the bearer
// fallback for subsequent requests.
func (c *Client) Login(ctx context.Context, name, password string) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/login", loginRequest{Name: name, Password: password}, &out); err != nil {
		return nil, err
	}
	if out.Token != "" {
		c.SetToken(out.Token)
	}
	return &out, nil
}

// Logout ends the server-side session and drops the bearer fallback.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodGet, "/logout", nil, nil)
	c.SetToken("")
	return err
}

// Me returns the currently authenticated user. A credential rejection comes
// back as an *Error with KindAuth; callers project that into an anonymous
// session rather than treating it as a failure.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodGet, "/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
