package backend

import (
	"context"
	"net/http"

	"github.com/UnknownOlympus/registrar/internal/models"
)

type sendCodeRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

type loginRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Code        string `json:"code"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// SendCode asks the backend to send a one-time SMS code to the phone number.
func (c *Client) SendCode(ctx context.Context, phoneNumber string) error {
	return c.do(ctx, request{
		op:     "send_code",
		method: http.MethodPost,
		path:   "/api/v1/auth/send-code",
		body:   sendCodeRequest{PhoneNumber: phoneNumber},
	}, nil)
}

// Login exchanges a phone number and SMS code for a token pair.
func (c *Client) Login(ctx context.Context, phoneNumber, code string) (models.Tokens, error) {
	var tokens models.Tokens
	err := c.do(ctx, request{
		op:     "login",
		method: http.MethodPost,
		path:   "/api/v1/auth/login",
		body:   loginRequest{PhoneNumber: phoneNumber, Code: code},
	}, &tokens)
	if err != nil {
		return models.Tokens{}, err
	}
	return tokens, nil
}

// Refresh rotates the token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (models.Tokens, error) {
	var tokens models.Tokens
	err := c.do(ctx, request{
		op:     "refresh",
		method: http.MethodPost,
		path:   "/api/v1/auth/refresh",
		body:   refreshRequest{RefreshToken: refreshToken},
	}, &tokens)
	if err != nil {
		return models.Tokens{}, err
	}
	return tokens, nil
}

// Me returns the authenticated user.
func (s *Session) Me(ctx context.Context) (models.User, error) {
	var user models.User
	err := s.do(ctx, request{op: "me", method: http.MethodGet, path: "/api/v1/auth/me"}, &user)
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Logout ends the backend session.
func (s *Session) Logout(ctx context.Context) error {
	return s.do(ctx, request{op: "logout", method: http.MethodPost, path: "/api/v1/auth/logout"}, nil)
}
