package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ngoctd/storefront/internal/model"
)

// LoginResponse is the flat user-plus-token shape returned by the login,
// federated-login and profile endpoints.
type LoginResponse struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	Token   string `json:"token"`
}

// RegisterResponse is the nested shape returned by the register endpoint.
type RegisterResponse struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

// StatusResponse is the status/message pair returned by the password
// recovery endpoints.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ProfileUpdate is the partial profile payload for UpdateProfile. Empty
// fields are left unchanged server-side.
type ProfileUpdate struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var res LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &res); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &res, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, name, email, password string) (*RegisterResponse, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var res RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", body, &res); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &res, nil
}

// FirebaseLogin exchanges a federated identity token for a store session.
func (c *Client) FirebaseLogin(ctx context.Context, idToken string) (*LoginResponse, error) {
	body := map[string]string{"idToken": idToken}
	var res LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/firebase-login", "", body, &res); err != nil {
		return nil, fmt.Errorf("firebase login: %w", err)
	}
	return &res, nil
}

// ForgotPassword asks the server to send a password reset email. The server
// answers with a status/message pair even for unknown addresses, so the
// response is decoded regardless of outcome.
func (c *Client) ForgotPassword(ctx context.Context, email string) (*StatusResponse, error) {
	body := map[string]string{"email": email}
	var res StatusResponse
	if err := c.do(ctx, http.MethodPost, "/auth/forgot-password", "", body, &res); err != nil {
		return nil, fmt.Errorf("forgot password: %w", err)
	}
	return &res, nil
}

// ResetPassword sets a new password using the token from the reset email.
func (c *Client) ResetPassword(ctx context.Context, resetToken, password string) (*StatusResponse, error) {
	body := map[string]string{"password": password}
	var res StatusResponse
	if err := c.do(ctx, http.MethodPut, "/auth/reset-password/"+resetToken, "", body, &res); err != nil {
		return nil, fmt.Errorf("reset password: %w", err)
	}
	return &res, nil
}

// UpdateProfile changes the logged-in user's profile and returns the fresh
// user-plus-token shape.
func (c *Client) UpdateProfile(ctx context.Context, bearer string, update ProfileUpdate) (*LoginResponse, error) {
	var res LoginResponse
	if err := c.do(ctx, http.MethodPut, "/auth/profile", bearer, update, &res); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &res, nil
}
