package backend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/UnknownOlympus/registrar/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// expirySkew refreshes tokens slightly before they actually expire.
const expirySkew = 10 * time.Second

// TokenStore loads and persists the token pair of one administrator.
type TokenStore interface {
	Tokens(ctx context.Context) (models.Tokens, error)
	SaveTokens(ctx context.Context, tokens models.Tokens) error
}

// Session performs authorized calls on behalf of one administrator. An expired access
// token is refreshed before the call; a 401 triggers one refresh and one retry.
type Session struct {
	client *Client
	store  TokenStore
	mu     sync.Mutex
	now    func() time.Time
}

// Session binds the client to a token store.
func (c *Client) Session(store TokenStore) *Session {
	return &Session{client: c, store: store, now: time.Now}
}

func (s *Session) do(ctx context.Context, req request, out any) error {
	tokens, err := s.store.Tokens(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tokens: %w", err)
	}

	if s.expired(tokens.AccessToken) {
		if tokens, err = s.refresh(ctx, tokens); err != nil {
			return err
		}
	}

	req.token = tokens.AccessToken
	err = s.client.do(ctx, req, out)
	if !IsUnauthorized(err) {
		return err
	}

	if tokens, err = s.refresh(ctx, tokens); err != nil {
		return err
	}
	req.token = tokens.AccessToken
	return s.client.do(ctx, req, out)
}

// refresh rotates the token pair. When another call already rotated the tokens
// that were rejected, the stored pair is used as is.
func (s *Session) refresh(ctx context.Context, rejected models.Tokens) (models.Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.Tokens(ctx)
	if err != nil {
		return models.Tokens{}, fmt.Errorf("failed to load tokens: %w", err)
	}
	if current.AccessToken != rejected.AccessToken && !s.expired(current.AccessToken) {
		return current, nil
	}
	if current.RefreshToken == "" {
		return models.Tokens{}, ErrSessionExpired
	}

	fresh, err := s.client.Refresh(ctx, current.RefreshToken)
	if err != nil {
		return models.Tokens{}, fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = current.RefreshToken
	}
	if err = s.store.SaveTokens(ctx, fresh); err != nil {
		return models.Tokens{}, fmt.Errorf("failed to save refreshed tokens: %w", err)
	}

	return fresh, nil
}

// expired reports whether a JWT access token is past its exp claim. Tokens that are not
// JWTs, or carry no exp, are treated as valid and left to the backend to reject.
func (s *Session) expired(accessToken string) bool {
	if accessToken == "" {
		return true
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}

	return !s.now().Add(expirySkew).Before(claims.ExpiresAt.Time)
}
