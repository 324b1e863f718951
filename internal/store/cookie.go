package store

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// CookieMaxAge is how long the access token cookie lives.
const CookieMaxAge = 7 * 24 * time.Hour

// NewCookieJar returns an in-memory jar using the public suffix list.
func NewCookieJar() (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return jar, nil
}

// CookieBackend mirrors the access token into a cookie jar for the backend origin.
//
// Only [KeyAccessToken] is stored; other keys are accepted and dropped. Cookies are
// filed under the https form of the origin so Secure cookies remain readable when the
// backend is served over plain http on a development host.
type CookieBackend struct {
	mu     sync.Mutex
	jar    http.CookieJar
	origin *url.URL
	now    func() time.Time
}

// NewCookieBackend creates a backend writing into jar for origin (e.g. "http://localhost:8000").
func NewCookieBackend(jar http.CookieJar, origin string) (*CookieBackend, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("invalid cookie origin %q: %w", origin, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid cookie origin %q: missing host", origin)
	}

	jarURL := &url.URL{Scheme: "https", Host: u.Host, Path: "/"}
	return &CookieBackend{jar: jar, origin: jarURL, now: time.Now}, nil
}

// Jar returns the underlying cookie jar.
func (c *CookieBackend) Jar() http.CookieJar { return c.jar }

func (c *CookieBackend) Get(_ context.Context, key string) (string, bool, error) {
	if key != KeyAccessToken {
		return "", false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ck := range c.jar.Cookies(c.origin) {
		if ck.Name == key && ck.Value != "" {
			return ck.Value, true, nil
		}
	}
	return "", false, nil
}

func (c *CookieBackend) Set(_ context.Context, key, value string) error {
	if key != KeyAccessToken {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.jar.SetCookies(c.origin, []*http.Cookie{{
		Name:     key,
		Value:    value,
		Path:     "/",
		Expires:  c.now().Add(CookieMaxAge),
		MaxAge:   int(CookieMaxAge / time.Second),
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}})
	return nil
}

// Delete overwrites the cookie with one that has already expired.
func (c *CookieBackend) Delete(_ context.Context, key string) error {
	if key != KeyAccessToken {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.jar.SetCookies(c.origin, []*http.Cookie{{
		Name:     key,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}})
	return nil
}
