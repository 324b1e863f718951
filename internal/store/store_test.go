package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/repositories"
	"github.com/desertthunder/vtx/internal/shared"
)

// failingBackend errors on every call.
type failingBackend struct{}

func (failingBackend) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}
func (failingBackend) Set(context.Context, string, string) error { return errors.New("disk on fire") }
func (failingBackend) Delete(context.Context, string) error      { return errors.New("disk on fire") }

func newCookieBackend(t *testing.T, origin string) *CookieBackend {
	t.Helper()
	jar, err := NewCookieJar()
	if err != nil {
		t.Fatalf("failed to create jar: %v", err)
	}
	cb, err := NewCookieBackend(jar, origin)
	if err != nil {
		t.Fatalf("failed to create cookie backend: %v", err)
	}
	return cb
}

func TestStoreToken(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		s := New(WithDurable(NewMemoryBackend()), WithCookies(newCookieBackend(t, "http://localhost:8000")))

		if err := s.SetToken(ctx, "abc123"); err != nil {
			t.Fatalf("SetToken() error = %v", err)
		}
		if got := s.Token(ctx); got != "abc123" {
			t.Errorf("Token() = %q, want abc123", got)
		}

		if err := s.RemoveToken(ctx); err != nil {
			t.Fatalf("RemoveToken() error = %v", err)
		}
		if got := s.Token(ctx); got != "" {
			t.Errorf("Token() after remove = %q, want empty", got)
		}
	})

	t.Run("cookie fallback", func(t *testing.T) {
		durable := NewMemoryBackend()
		cookies := newCookieBackend(t, "http://localhost:8000")
		s := New(WithDurable(durable), WithCookies(cookies))

		_ = s.SetToken(ctx, "from-cookie")
		_ = durable.Delete(ctx, KeyAccessToken)

		if got := s.Token(ctx); got != "from-cookie" {
			t.Errorf("Token() = %q, want cookie value", got)
		}
	})

	t.Run("durable wins", func(t *testing.T) {
		durable := NewMemoryBackend()
		cookies := newCookieBackend(t, "https://api.example.com")
		s := New(WithDurable(durable), WithCookies(cookies))

		_ = cookies.Set(ctx, KeyAccessToken, "cookie")
		_ = durable.Set(ctx, KeyAccessToken, "durable")

		if got := s.Token(ctx); got != "durable" {
			t.Errorf("Token() = %q, want durable", got)
		}
	})

	t.Run("no backends is a no-op", func(t *testing.T) {
		s := New()
		if s.Available() {
			t.Error("store without backends should not be available")
		}
		if err := s.SetToken(ctx, "abc123"); err != nil {
			t.Errorf("SetToken() error = %v", err)
		}
		if got := s.Token(ctx); got != "" {
			t.Errorf("Token() = %q, want empty", got)
		}
		if err := s.SetUser(ctx, &models.User{ID: "u1"}); err != nil {
			t.Errorf("SetUser() error = %v", err)
		}
		if s.User(ctx) != nil {
			t.Error("User() should be nil without backends")
		}
		if err := s.Clear(ctx); err != nil {
			t.Errorf("Clear() error = %v", err)
		}
	})

	t.Run("read errors degrade to absent", func(t *testing.T) {
		s := New(WithDurable(failingBackend{}))
		if got := s.Token(ctx); got != "" {
			t.Errorf("Token() = %q, want empty", got)
		}
		if s.User(ctx) != nil {
			t.Error("User() should be nil when the backend fails")
		}
	})

	t.Run("write errors are returned", func(t *testing.T) {
		s := New(WithDurable(failingBackend{}))
		err := s.SetToken(ctx, "abc123")
		if !errors.Is(err, shared.ErrStoreUnavailable) {
			t.Errorf("expected ErrStoreUnavailable, got %v", err)
		}
	})
}

func TestStoreUser(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		s := NewMemory()
		user := &models.User{ID: "u1", Email: "ada@example.com", Username: "ada", Role: "admin"}

		if err := s.SetUser(ctx, user); err != nil {
			t.Fatalf("SetUser() error = %v", err)
		}

		got := s.User(ctx)
		if got == nil || *got != *user {
			t.Errorf("User() = %+v, want %+v", got, user)
		}

		if err := s.RemoveUser(ctx); err != nil {
			t.Fatalf("RemoveUser() error = %v", err)
		}
		if s.User(ctx) != nil {
			t.Error("User() should be nil after remove")
		}
	})

	t.Run("malformed JSON is absent", func(t *testing.T) {
		durable := NewMemoryBackend()
		_ = durable.Set(ctx, KeyUser, "{not json")

		if New(WithDurable(durable)).User(ctx) != nil {
			t.Error("malformed user should read as absent")
		}
	})

	t.Run("user is not mirrored to cookies", func(t *testing.T) {
		cookies := newCookieBackend(t, "https://api.example.com")
		s := New(WithCookies(cookies))

		_ = s.SetUser(ctx, &models.User{ID: "u1"})
		if s.User(ctx) != nil {
			t.Error("cookie-only store should not hold a user")
		}
	})
}

func TestStoreCredential(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	if s.Credential(ctx) != nil {
		t.Fatal("Credential() should be nil without a token")
	}

	_ = s.SetToken(ctx, "access")
	_ = s.SetRefreshToken(ctx, "refresh")
	_ = s.SetUser(ctx, &models.User{ID: "u1"})

	tok := s.Credential(ctx)
	if tok == nil || tok.AccessToken != "access" || tok.RefreshToken != "refresh" || tok.TokenType != "Bearer" {
		t.Fatalf("unexpected credential %+v", tok)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if s.Token(ctx) != "" || s.RefreshToken(ctx) != "" || s.User(ctx) != nil {
		t.Error("Clear() should remove token, refresh token and user")
	}
}

func TestCookieBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("cookie attributes", func(t *testing.T) {
		cb := newCookieBackend(t, "http://localhost:8000")
		now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		cb.now = func() time.Time { return now }

		if err := cb.Set(ctx, KeyAccessToken, "tok"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		cookies := cb.Jar().Cookies(cb.origin)
		if len(cookies) != 1 || cookies[0].Name != "accessToken" || cookies[0].Value != "tok" {
			t.Fatalf("unexpected cookies %+v", cookies)
		}
	})

	t.Run("other keys are ignored", func(t *testing.T) {
		cb := newCookieBackend(t, "https://api.example.com")
		_ = cb.Set(ctx, KeyUser, `{"_id":"u1"}`)

		if _, ok, _ := cb.Get(ctx, KeyUser); ok {
			t.Error("cookie backend should not store the user")
		}
	})

	t.Run("delete expires the cookie", func(t *testing.T) {
		cb := newCookieBackend(t, "https://api.example.com")
		_ = cb.Set(ctx, KeyAccessToken, "tok")
		_ = cb.Delete(ctx, KeyAccessToken)

		if _, ok, _ := cb.Get(ctx, KeyAccessToken); ok {
			t.Error("deleted cookie should be absent")
		}
	})

	t.Run("invalid origin", func(t *testing.T) {
		jar, _ := NewCookieJar()
		if _, err := NewCookieBackend(jar, "not a url"); err == nil {
			t.Error("expected error for origin without host")
		}
	})
}

func TestDurableBackend(t *testing.T) {
	ctx := context.Background()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer db.Close()

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	s := New(WithDurable(NewDurableBackend(repositories.NewCredentialRepository(db))))

	if err := s.SetToken(ctx, "abc123"); err != nil {
		t.Fatalf("SetToken() error = %v", err)
	}
	if err := s.SetUser(ctx, &models.User{ID: "u1", Username: "ada"}); err != nil {
		t.Fatalf("SetUser() error = %v", err)
	}

	reopened := New(WithDurable(NewDurableBackend(repositories.NewCredentialRepository(db))))
	if got := reopened.Token(ctx); got != "abc123" {
		t.Errorf("Token() = %q, want abc123", got)
	}
	if u := reopened.User(ctx); u == nil || u.Username != "ada" {
		t.Errorf("User() = %+v", u)
	}

	_ = reopened.Clear(ctx)
	if s.Token(ctx) != "" {
		t.Error("token should be cleared for every store on the same database")
	}
}
