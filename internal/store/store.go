package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/shared"
)

// Keys written to the durable backend.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
)

// Store reads and writes the credential and cached user through its backends.
type Store struct {
	durable Backend
	cookies Backend
	logger  *log.Logger
}

// Option configures a [Store].
type Option func(*Store)

// WithDurable sets the authoritative keyed backend.
func WithDurable(b Backend) Option {
	return func(s *Store) { s.durable = b }
}

// WithCookies sets the cookie backend that mirrors the access token.
func WithCookies(b Backend) Option {
	return func(s *Store) { s.cookies = b }
}

// WithLogger sets the logger used for degraded reads.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a Store. With no backend options every operation is a no-op.
func New(opts ...Option) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = shared.DiscardLogger()
	}
	return s
}

// NewMemory returns a Store backed by a fresh [MemoryBackend].
func NewMemory() *Store {
	return New(WithDurable(NewMemoryBackend()))
}

// Available reports whether the store has any persistent context.
func (s *Store) Available() bool {
	return s.durable != nil || s.cookies != nil
}

// SetToken writes token to the durable backend and the cookie.
func (s *Store) SetToken(ctx context.Context, token string) error {
	var errs []error
	if s.durable != nil {
		if err := s.durable.Set(ctx, KeyAccessToken, token); err != nil {
			errs = append(errs, err)
		}
	}
	if s.cookies != nil {
		if err := s.cookies.Set(ctx, KeyAccessToken, token); err != nil {
			errs = append(errs, err)
		}
	}
	return wrapWrite("store token", errs)
}

// Token reads the durable backend first and falls back to the cookie. Absence is "".
func (s *Store) Token(ctx context.Context) string {
	if v, ok := s.read(ctx, s.durable, KeyAccessToken); ok && v != "" {
		return v
	}
	if v, ok := s.read(ctx, s.cookies, KeyAccessToken); ok {
		return v
	}
	return ""
}

// RemoveToken clears the token from both locations.
func (s *Store) RemoveToken(ctx context.Context) error {
	var errs []error
	if s.durable != nil {
		if err := s.durable.Delete(ctx, KeyAccessToken); err != nil {
			errs = append(errs, err)
		}
	}
	if s.cookies != nil {
		if err := s.cookies.Delete(ctx, KeyAccessToken); err != nil {
			errs = append(errs, err)
		}
	}
	return wrapWrite("remove token", errs)
}

// SetRefreshToken stores the refresh token in the durable backend.
func (s *Store) SetRefreshToken(ctx context.Context, token string) error {
	if s.durable == nil {
		return nil
	}
	return wrapWrite("store refresh token", nonNil(s.durable.Set(ctx, KeyRefreshToken, token)))
}

// RefreshToken returns the stored refresh token or "".
func (s *Store) RefreshToken(ctx context.Context) string {
	v, _ := s.read(ctx, s.durable, KeyRefreshToken)
	return v
}

// RemoveRefreshToken deletes the refresh token.
func (s *Store) RemoveRefreshToken(ctx context.Context) error {
	if s.durable == nil {
		return nil
	}
	return wrapWrite("remove refresh token", nonNil(s.durable.Delete(ctx, KeyRefreshToken)))
}

// SetUser caches user as JSON. A nil user removes the cache.
func (s *Store) SetUser(ctx context.Context, user *models.User) error {
	if s.durable == nil {
		return nil
	}
	if user == nil {
		return s.RemoveUser(ctx)
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	return wrapWrite("store user", nonNil(s.durable.Set(ctx, KeyUser, string(data))))
}

// User returns the cached user, or nil when absent or unreadable.
func (s *Store) User(ctx context.Context) *models.User {
	raw, ok := s.read(ctx, s.durable, KeyUser)
	if !ok || raw == "" {
		return nil
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.logger.Warn("discarding malformed cached user", "error", err)
		return nil
	}
	return &user
}

// RemoveUser deletes the cached user.
func (s *Store) RemoveUser(ctx context.Context) error {
	if s.durable == nil {
		return nil
	}
	return wrapWrite("remove user", nonNil(s.durable.Delete(ctx, KeyUser)))
}

// Credential returns the stored tokens as an [oauth2.Token], or nil without an access token.
func (s *Store) Credential(ctx context.Context) *oauth2.Token {
	access := s.Token(ctx)
	if access == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  access,
		RefreshToken: s.RefreshToken(ctx),
		TokenType:    "Bearer",
	}
}

// Clear removes the token, refresh token and cached user. Every removal is attempted.
func (s *Store) Clear(ctx context.Context) error {
	return errors.Join(s.RemoveToken(ctx), s.RemoveRefreshToken(ctx), s.RemoveUser(ctx))
}

func (s *Store) read(ctx context.Context, b Backend, key string) (string, bool) {
	if b == nil {
		return "", false
	}
	v, ok, err := b.Get(ctx, key)
	if err != nil {
		s.logger.Warn("credential read failed, treating as absent", "key", key, "error", err)
		return "", false
	}
	return v, ok
}

func nonNil(err error) []error {
	if err == nil {
		return nil
	}
	return []error{err}
}

func wrapWrite(op string, errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", shared.ErrStoreUnavailable, op, errors.Join(errs...))
}
