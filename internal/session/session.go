package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/shared"
)

// State is the resolved authentication state.
type State int

const (
	StateUnknown State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Routes that never trigger a reconciliation call.
const (
	LoginRoute    = "/login"
	RegisterRoute = "/register"
	CallbackRoute = "/auth/callback"
	HomeRoute     = "/"
)

func isAuthRoute(route string) bool {
	switch route {
	case LoginRoute, RegisterRoute, CallbackRoute:
		return true
	}
	return false
}

// Store is the slice of the credential store the session writes through.
type Store interface {
	Token(ctx context.Context) string
	SetToken(ctx context.Context, token string) error
	SetRefreshToken(ctx context.Context, token string) error
	User(ctx context.Context) *models.User
	SetUser(ctx context.Context, user *models.User) error
	RemoveUser(ctx context.Context) error
	Clear(ctx context.Context) error
}

// UserFetcher loads the account behind the stored credential.
type UserFetcher interface {
	CurrentUser(ctx context.Context) (*models.User, error)
}

// LogoutCaller ends the session on the backend.
type LogoutCaller interface {
	Logout(ctx context.Context) error
}

// Navigator moves the application to another route.
type Navigator interface {
	Navigate(path string)
}

// Snapshot is a consistent read of the session.
type Snapshot struct {
	State   State
	User    *models.User
	Loading bool
}

// Options configures a [Manager]. Users is required for reconciliation; the rest
// are optional.
type Options struct {
	Users     UserFetcher
	Logout    LogoutCaller
	Navigator Navigator
	Logger    *log.Logger
}

// Manager owns the session state.
type Manager struct {
	store  Store
	users  UserFetcher
	logout LogoutCaller
	nav    Navigator
	logger *log.Logger

	once  sync.Once
	ready chan struct{}

	mu       sync.RWMutex
	state    State
	user     *models.User
	resolved bool
	subs     map[int]chan Snapshot
	nextSub  int
}

// New returns a Manager in [StateUnknown].
func New(store Store, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	return &Manager{
		store:  store,
		users:  opts.Users,
		logout: opts.Logout,
		nav:    opts.Navigator,
		logger: logger,
		ready:  make(chan struct{}),
		subs:   make(map[int]chan Snapshot),
	}
}

// Init reconciles the session with the store and the backend. Only the first call
// does any work; later calls return the current snapshot.
func (m *Manager) Init(ctx context.Context, route string) Snapshot {
	m.once.Do(func() { m.init(ctx, route) })
	return m.Snapshot()
}

func (m *Manager) init(ctx context.Context, route string) {
	if m.settled() {
		m.logger.Debug("session resolved before startup, skipping reconciliation")
		return
	}

	seed := m.store.User(ctx)
	m.update(func() {
		if !m.resolved {
			m.user = seed
		}
	})

	if isAuthRoute(route) {
		m.logger.Debug("auth route, skipping reconciliation", "route", route)
		if seed != nil {
			m.settle(StateAuthenticated, seed)
		} else {
			m.settle(StateAnonymous, nil)
		}
		return
	}

	if m.store.Token(ctx) == "" {
		if seed != nil && !m.settled() {
			m.logger.Debug("discarding cached user without credential", "user", seed.Username)
			if err := m.store.RemoveUser(ctx); err != nil {
				m.logger.Warn("failed to remove stale user", "error", err)
			}
		}
		m.settle(StateAnonymous, nil)
		return
	}

	user, err := m.fetchUser(ctx)
	if m.settled() {
		m.logger.Debug("session resolved during startup, dropping reconciliation result")
		return
	}
	if err != nil {
		m.logger.Info("session not restored", "error", err)
		if err := m.store.Clear(ctx); err != nil {
			m.logger.Warn("failed to clear credentials", "error", err)
		}
		m.settle(StateAnonymous, nil)
		return
	}

	if err := m.store.SetUser(ctx, user); err != nil {
		m.logger.Warn("failed to cache user", "error", err)
	}
	m.settle(StateAuthenticated, user)
}

func (m *Manager) fetchUser(ctx context.Context) (*models.User, error) {
	if m.users == nil {
		return nil, fmt.Errorf("%w: no user fetcher configured", shared.ErrNotAuthenticated)
	}

	user, err := m.users.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil || user.ID == "" {
		return nil, fmt.Errorf("%w: empty current user", shared.ErrMalformedResponse)
	}
	return user, nil
}

// CompleteLogin stores a server-issued credential and moves to [StateAuthenticated].
// When user is nil the profile is fetched; if that fails the credential is discarded.
func (m *Manager) CompleteLogin(ctx context.Context, token, refreshToken string, user *models.User) error {
	if token == "" {
		return fmt.Errorf("%w: access token", shared.ErrMissingArgument)
	}

	if err := m.store.SetToken(ctx, token); err != nil {
		return err
	}
	if refreshToken != "" {
		if err := m.store.SetRefreshToken(ctx, refreshToken); err != nil {
			return err
		}
	}

	if user == nil {
		fetched, err := m.fetchUser(ctx)
		if err != nil {
			if clearErr := m.store.Clear(ctx); clearErr != nil {
				m.logger.Warn("failed to clear credentials", "error", clearErr)
			}
			m.resolve(StateAnonymous, nil)
			return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
		}
		user = fetched
	}

	if err := m.store.SetUser(ctx, user); err != nil {
		return err
	}

	m.logger.Info("signed in", "user", user.Username)
	m.resolve(StateAuthenticated, user)
	return nil
}

// Logout ends the session. The backend call is best effort and only made while a
// credential is held. Storage is always cleared, so calling Logout while anonymous
// is safe.
func (m *Manager) Logout(ctx context.Context) error {
	hadToken := m.store.Token(ctx) != ""
	wasSignedIn := m.IsAuthenticated()

	if hadToken && m.logout != nil {
		if err := m.logout.Logout(ctx); err != nil {
			m.logger.Warn("backend logout failed", "error", err)
		}
	}

	err := m.store.Clear(ctx)
	m.resolve(StateAnonymous, nil)

	if (hadToken || wasSignedIn) && m.nav != nil {
		m.nav.Navigate(HomeRoute)
	}
	return err
}

// SetUser replaces the current user without touching the credential.
func (m *Manager) SetUser(ctx context.Context, user *models.User) error {
	if user == nil {
		if err := m.store.RemoveUser(ctx); err != nil {
			return err
		}
		m.resolve(StateAnonymous, nil)
		return nil
	}

	if err := m.store.SetUser(ctx, user); err != nil {
		return err
	}
	m.resolve(StateAuthenticated, user)
	return nil
}

// Expire drops the in-memory session after the pipeline gave up on refreshing. The
// pipeline has already cleared storage. During startup the pending Init performs the
// resolution itself.
func (m *Manager) Expire(cause error) {
	m.logger.Info("session expired", "error", cause)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.user = nil
	if m.resolved {
		m.state = StateAnonymous
	}
	m.broadcast()
}

// Snapshot returns the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot()
}

func (m *Manager) snapshot() Snapshot {
	return Snapshot{State: m.state, User: m.user, Loading: !m.resolved}
}

// IsAuthenticated reports whether a user is signed in.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateAuthenticated
}

// User returns the signed-in user, or nil.
func (m *Manager) User() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// Ready is closed once the state leaves [StateUnknown].
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Subscribe returns a channel that receives the latest snapshot after every change.
// Slow readers only see the most recent one. Call the returned func to stop.
func (m *Manager) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
			close(ch)
		})
	}
}

// resolve sets a terminal state. The first call closes Ready.
func (m *Manager) resolve(state State, user *models.User) {
	m.update(func() {
		m.state = state
		m.user = user
		if !m.resolved {
			m.resolved = true
			close(m.ready)
		}
	})
}

// settle applies a startup resolution unless an explicit action already resolved the
// session.
func (m *Manager) settle(state State, user *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resolved {
		return
	}
	m.state = state
	m.user = user
	m.resolved = true
	close(m.ready)
	m.broadcast()
}

func (m *Manager) settled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resolved
}

func (m *Manager) update(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
	m.broadcast()
}

// broadcast must be called with mu held.
func (m *Manager) broadcast() {
	s := m.snapshot()
	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}
