package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/vtx/internal/shared"
)

// Backend paths the pipeline treats specially.
const (
	RefreshPath = "/api/v1/users/refresh-token"
	LogoutPath  = "/api/v1/users/logout"
	LoginRoute  = "/login"
)

// Navigator moves the user to another entry point.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// Credentials is the subset of the credential store the pipeline reads and writes.
type Credentials interface {
	Token(ctx context.Context) string
	RefreshToken(ctx context.Context) string
	SetToken(ctx context.Context, token string) error
	SetRefreshToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Options configures a [Pipeline].
type Options struct {
	BaseURL        string
	Client         *http.Client
	UserAgent      string
	Logger         *log.Logger
	Navigator      Navigator
	RefreshTimeout time.Duration
}

// Pipeline dispatches [Request] values with the stored credential attached.
type Pipeline struct {
	baseURL        string
	userAgent      string
	client         *http.Client
	creds          Credentials
	logger         *log.Logger
	navigator      Navigator
	refreshTimeout time.Duration

	mu       sync.Mutex
	state    State
	current  *flight
	onExpire func(error)

	// enqueued runs under the lock each time a request joins a flight.
	enqueued func(a Attempt, queued int)
}

// New creates a Pipeline reading credentials from creds.
func New(creds Credentials, opts Options) *Pipeline {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	timeout := opts.RefreshTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Pipeline{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		userAgent:      opts.UserAgent,
		client:         client,
		creds:          creds,
		logger:         logger,
		navigator:      opts.Navigator,
		refreshTimeout: timeout,
	}
}

// BaseURL returns the backend origin requests are sent to.
func (p *Pipeline) BaseURL() string { return p.baseURL }

// OnSessionExpired registers fn to run after a failed refresh has cleared the credential store.
func (p *Pipeline) OnSessionExpired(fn func(error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onExpire = fn
}

// State returns the current refresh state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return 0
	}
	return len(p.current.waiters)
}

// Do sends req and returns the backend's response.
//
// Non-2xx responses are returned without error; only transport failures and
// unrecoverable refresh failures produce one.
func (p *Pipeline) Do(ctx context.Context, req Request) (*Response, error) {
	return p.do(ctx, Attempt{Request: req})
}

func (p *Pipeline) do(ctx context.Context, a Attempt) (*Response, error) {
	resp, err := p.send(ctx, &a)
	if err != nil || !p.intercepts(a, resp) {
		return resp, err
	}

	p.mu.Lock()

	switch current := p.creds.Token(ctx); {
	case a.Token != "" && current == "":
		// An earlier episode already ended in teardown.
		p.mu.Unlock()
		p.logger.Debug("credential cleared since dispatch", "path", a.Request.Path)
		return nil, fmt.Errorf("%w: credential cleared after %s %s was sent", shared.ErrSessionExpired, a.Request.Method, a.Request.Path)
	case current != "" && current != a.Token:
		p.mu.Unlock()
		p.logger.Debug("credential changed since dispatch, retrying", "path", a.Request.Path)
		return p.retry(ctx, a)
	}

	if p.state == StateIdle {
		f := &flight{}
		p.current = f
		p.state = StateRefreshInFlight
		p.mu.Unlock()
		return p.lead(ctx, a, f)
	}

	w := p.current.enqueue()
	if p.enqueued != nil {
		p.enqueued(a, len(p.current.waiters))
	}
	p.mu.Unlock()

	return p.wait(ctx, a, w)
}

// lead runs the refresh for flight f, drains its queue, then retries a.
func (p *Pipeline) lead(ctx context.Context, a Attempt, f *flight) (*Response, error) {
	p.logger.Debug("access token rejected, refreshing", "path", a.Request.Path)

	err := p.refresh(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", shared.ErrSessionExpired, err)
		p.teardown(ctx, err)
	}

	p.drain(f, err)

	if err != nil {
		return nil, err
	}
	return p.retry(ctx, a)
}

// wait parks a on w until the flight settles, then retries it.
func (p *Pipeline) wait(ctx context.Context, a Attempt, w *waiter) (*Response, error) {
	defer w.finish()

	select {
	case err := <-w.release:
		if err != nil {
			return nil, err
		}
		return p.retry(ctx, a)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// drain releases the waiters of f one at a time in arrival order. Requests that join
// while draining are released in the same pass.
func (p *Pipeline) drain(f *flight, outcome error) {
	p.mu.Lock()
	p.state = StateDraining
	p.mu.Unlock()

	for {
		p.mu.Lock()
		w, ok := f.pop()
		if !ok {
			p.state = StateIdle
			p.current = nil
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()

		w.release <- outcome
		<-w.done
	}
}

func (p *Pipeline) retry(ctx context.Context, a Attempt) (*Response, error) {
	next := a.Retry()
	return p.send(ctx, &next)
}

func (p *Pipeline) intercepts(a Attempt, resp *Response) bool {
	return resp.StatusCode == http.StatusUnauthorized && !a.Retried() && !isAuthPath(a.Request.Path)
}

// isAuthPath matches the refresh and logout endpoints, whose 401s are final.
func isAuthPath(path string) bool {
	path = strings.TrimRight(path, "/")
	return strings.HasSuffix(path, RefreshPath) || strings.HasSuffix(path, LogoutPath)
}

// teardown clears local credentials and signals the session after a failed refresh.
func (p *Pipeline) teardown(ctx context.Context, cause error) {
	ctx = context.WithoutCancel(ctx)

	p.logger.Warn("session expired", "error", cause)

	if err := p.creds.Clear(ctx); err != nil {
		p.logger.Error("failed to clear credentials", "error", err)
	}

	p.mu.Lock()
	hook := p.onExpire
	p.mu.Unlock()

	if hook != nil {
		hook(cause)
	}
	if p.navigator != nil {
		p.navigator.Navigate(LoginRoute)
	}
}

// send dispatches one attempt, recording on a the token it carried.
func (p *Pipeline) send(ctx context.Context, a *Attempt) (*Response, error) {
	req, err := a.httpRequest(ctx, p.baseURL)
	if err != nil {
		return nil, err
	}

	requestID := shared.GenerateID()
	req.Header.Set("X-Request-ID", requestID)
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	a.Token = p.creds.Token(ctx)
	if a.Token != "" {
		(&oauth2.Token{AccessToken: a.Token, TokenType: "Bearer"}).SetAuthHeader(req)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", shared.ErrNetwork, req.Method, a.Request.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", shared.ErrNetwork, err)
	}

	p.logger.Debug("request",
		"method", req.Method,
		"path", a.Request.Path,
		"status", resp.StatusCode,
		"attempt", a.N,
		"request_id", requestID,
		"elapsed", time.Since(start),
	)

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}
