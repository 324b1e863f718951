package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/pipeline"
	"github.com/desertthunder/vtx/internal/shared"
	"github.com/desertthunder/vtx/internal/store"
	tu "github.com/desertthunder/vtx/internal/testing"
)

type fakeUsers struct {
	calls atomic.Int32
	user  *models.User
	err   error
}

func (f *fakeUsers) CurrentUser(ctx context.Context) (*models.User, error) {
	f.calls.Add(1)
	return f.user, f.err
}

type fakeLogout struct {
	calls atomic.Int32
	err   error
}

func (f *fakeLogout) Logout(ctx context.Context) error {
	f.calls.Add(1)
	return f.err
}

var (
	ada    = &models.User{ID: "u1", Username: "ada", Email: "ada@example.com"}
	grace  = &models.User{ID: "u2", Username: "grace", Email: "grace@example.com"}
	errNet = errors.New("connection refused")
)

func newManager(t *testing.T, users *fakeUsers) (*Manager, *store.Store, *fakeLogout, *tu.RecordingNavigator) {
	t.Helper()
	st := store.NewMemory()
	lo := &fakeLogout{}
	nav := &tu.RecordingNavigator{}
	m := New(st, Options{Users: users, Logout: lo, Navigator: nav})
	return m, st, lo, nav
}

func seed(t *testing.T, st *store.Store, token string, user *models.User) {
	t.Helper()
	ctx := context.Background()
	if token != "" {
		require.NoError(t, st.SetToken(ctx, token))
	}
	if user != nil {
		require.NoError(t, st.SetUser(ctx, user))
	}
}

func TestInit(t *testing.T) {
	ctx := context.Background()

	t.Run("starts unknown and loading", func(t *testing.T) {
		m, _, _, _ := newManager(t, &fakeUsers{})
		snap := m.Snapshot()
		assert.Equal(t, StateUnknown, snap.State)
		assert.True(t, snap.Loading)
		select {
		case <-m.Ready():
			t.Fatal("ready before Init")
		default:
		}
	})

	t.Run("no credential resolves anonymous without network", func(t *testing.T) {
		users := &fakeUsers{user: ada}
		m, _, _, _ := newManager(t, users)

		snap := m.Init(ctx, "/")
		assert.Equal(t, StateAnonymous, snap.State)
		assert.False(t, snap.Loading)
		assert.Nil(t, snap.User)
		assert.Zero(t, users.calls.Load())
		<-m.Ready()
	})

	t.Run("stale cached user is discarded", func(t *testing.T) {
		users := &fakeUsers{user: ada}
		m, st, _, _ := newManager(t, users)
		seed(t, st, "", ada)

		snap := m.Init(ctx, "/videos")
		assert.Equal(t, StateAnonymous, snap.State)
		assert.Nil(t, snap.User)
		assert.Nil(t, st.User(ctx))
		assert.False(t, m.IsAuthenticated())
		assert.Zero(t, users.calls.Load())
	})

	t.Run("auth routes skip reconciliation", func(t *testing.T) {
		for _, route := range []string{LoginRoute, RegisterRoute, CallbackRoute} {
			t.Run(route+" with cached user", func(t *testing.T) {
				users := &fakeUsers{user: grace}
				m, st, _, _ := newManager(t, users)
				seed(t, st, "tok", ada)

				snap := m.Init(ctx, route)
				assert.Equal(t, StateAuthenticated, snap.State)
				assert.Equal(t, "ada", snap.User.Username)
				assert.Zero(t, users.calls.Load())
			})

			t.Run(route+" without cached user", func(t *testing.T) {
				users := &fakeUsers{user: grace}
				m, st, _, _ := newManager(t, users)
				seed(t, st, "tok", nil)

				snap := m.Init(ctx, route)
				assert.Equal(t, StateAnonymous, snap.State)
				assert.Zero(t, users.calls.Load())
				assert.Equal(t, "tok", st.Token(ctx), "credential is left alone on auth routes")
			})
		}
	})

	t.Run("valid credential overwrites cache", func(t *testing.T) {
		users := &fakeUsers{user: grace}
		m, st, _, _ := newManager(t, users)
		seed(t, st, "tok", ada)

		snap := m.Init(ctx, "/")
		assert.Equal(t, StateAuthenticated, snap.State)
		assert.Equal(t, "grace", snap.User.Username)
		assert.Equal(t, "grace", st.User(ctx).Username)
		assert.EqualValues(t, 1, users.calls.Load())
	})

	t.Run("failed reconciliation clears storage", func(t *testing.T) {
		users := &fakeUsers{err: errNet}
		m, st, _, _ := newManager(t, users)
		seed(t, st, "tok", ada)

		snap := m.Init(ctx, "/")
		assert.Equal(t, StateAnonymous, snap.State)
		assert.Empty(t, st.Token(ctx))
		assert.Nil(t, st.User(ctx))
	})

	t.Run("empty profile counts as failure", func(t *testing.T) {
		users := &fakeUsers{user: &models.User{}}
		m, st, _, _ := newManager(t, users)
		seed(t, st, "tok", nil)

		assert.Equal(t, StateAnonymous, m.Init(ctx, "/").State)
	})

	t.Run("resolves exactly once", func(t *testing.T) {
		users := &fakeUsers{user: ada}
		m, st, _, _ := newManager(t, users)
		seed(t, st, "tok", nil)

		updates, stop := m.Subscribe()
		defer stop()

		m.Init(ctx, "/")
		m.Init(ctx, "/")
		m.Init(ctx, LoginRoute)

		assert.EqualValues(t, 1, users.calls.Load())

		last := <-updates
		assert.Equal(t, StateAuthenticated, last.State)
		assert.False(t, last.Loading)
	})

	t.Run("logout before init keeps its resolution", func(t *testing.T) {
		users := &fakeUsers{user: ada}
		m, st, _, _ := newManager(t, users)
		seed(t, st, "tok", ada)

		require.NoError(t, m.Logout(ctx))
		<-m.Ready()

		updates, stop := m.Subscribe()
		defer stop()

		snap := m.Init(ctx, "/")
		assert.Equal(t, StateAnonymous, snap.State)
		assert.EqualValues(t, 0, users.calls.Load())
		assert.Empty(t, st.Token(ctx))

		select {
		case s := <-updates:
			t.Fatalf("unexpected second resolution: %+v", s)
		default:
		}
	})

	t.Run("set user before init keeps its resolution", func(t *testing.T) {
		users := &fakeUsers{user: grace}
		m, st, _, _ := newManager(t, users)
		seed(t, st, "tok", nil)

		require.NoError(t, m.SetUser(ctx, ada))

		snap := m.Init(ctx, "/")
		assert.Equal(t, StateAuthenticated, snap.State)
		assert.Equal(t, "ada", snap.User.Username)
		assert.EqualValues(t, 0, users.calls.Load())
		assert.Equal(t, "ada", st.User(ctx).Username)
	})
}

func TestCompleteLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("with inline profile", func(t *testing.T) {
		users := &fakeUsers{}
		m, st, _, _ := newManager(t, users)

		require.NoError(t, m.CompleteLogin(ctx, "abc123", "ref", ada))
		assert.True(t, m.IsAuthenticated())
		assert.Equal(t, "abc123", st.Token(ctx))
		assert.Equal(t, "ref", st.RefreshToken(ctx))
		assert.Equal(t, "ada", st.User(ctx).Username)
		assert.Zero(t, users.calls.Load())
		<-m.Ready()
	})

	t.Run("fetches profile when missing", func(t *testing.T) {
		users := &fakeUsers{user: grace}
		m, st, _, _ := newManager(t, users)

		require.NoError(t, m.CompleteLogin(ctx, "abc123", "", nil))
		assert.Equal(t, "grace", m.User().Username)
		assert.Empty(t, st.RefreshToken(ctx))
		assert.EqualValues(t, 1, users.calls.Load())
	})

	t.Run("profile fetch failure discards credential", func(t *testing.T) {
		users := &fakeUsers{err: errNet}
		m, st, _, _ := newManager(t, users)

		err := m.CompleteLogin(ctx, "abc123", "", nil)
		require.ErrorIs(t, err, shared.ErrAuthFailed)
		assert.ErrorIs(t, err, errNet)
		assert.Empty(t, st.Token(ctx))
		assert.Equal(t, StateAnonymous, m.Snapshot().State)
	})

	t.Run("requires a token", func(t *testing.T) {
		m, _, _, _ := newManager(t, &fakeUsers{})
		assert.ErrorIs(t, m.CompleteLogin(ctx, "", "", ada), shared.ErrMissingArgument)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("signed in", func(t *testing.T) {
		m, st, lo, nav := newManager(t, &fakeUsers{})
		require.NoError(t, m.CompleteLogin(ctx, "tok", "ref", ada))

		require.NoError(t, m.Logout(ctx))
		assert.EqualValues(t, 1, lo.calls.Load())
		assert.Empty(t, st.Token(ctx))
		assert.Empty(t, st.RefreshToken(ctx))
		assert.Nil(t, st.User(ctx))
		assert.Equal(t, StateAnonymous, m.Snapshot().State)
		assert.Equal(t, []string{HomeRoute}, nav.Paths())
	})

	t.Run("backend failure does not block cleanup", func(t *testing.T) {
		m, st, lo, _ := newManager(t, &fakeUsers{})
		lo.err = errNet
		require.NoError(t, m.CompleteLogin(ctx, "tok", "", ada))

		require.NoError(t, m.Logout(ctx))
		assert.Empty(t, st.Token(ctx))
		assert.False(t, m.IsAuthenticated())
	})

	t.Run("idempotent when anonymous", func(t *testing.T) {
		m, st, lo, nav := newManager(t, &fakeUsers{})
		m.Init(ctx, "/")

		assert.NoError(t, m.Logout(ctx))
		assert.NoError(t, m.Logout(ctx))
		assert.Zero(t, lo.calls.Load())
		assert.Empty(t, st.Token(ctx))
		assert.Nil(t, st.User(ctx))
		assert.Zero(t, nav.Count(HomeRoute))
	})

	t.Run("clears residual storage", func(t *testing.T) {
		m, st, _, _ := newManager(t, &fakeUsers{})
		m.Init(ctx, LoginRoute)
		require.NoError(t, st.SetRefreshToken(ctx, "leftover"))

		assert.NoError(t, m.Logout(ctx))
		assert.Empty(t, st.RefreshToken(ctx))
	})
}

func TestSetUser(t *testing.T) {
	ctx := context.Background()
	m, st, _, _ := newManager(t, &fakeUsers{})
	seed(t, st, "oauth-token", nil)

	require.NoError(t, m.SetUser(ctx, ada))
	assert.True(t, m.IsAuthenticated())
	assert.Equal(t, "oauth-token", st.Token(ctx))
	assert.Equal(t, "ada", st.User(ctx).Username)

	require.NoError(t, m.SetUser(ctx, nil))
	assert.False(t, m.IsAuthenticated())
	assert.Equal(t, "oauth-token", st.Token(ctx))
	assert.Nil(t, st.User(ctx))
}

func TestExpire(t *testing.T) {
	ctx := context.Background()

	t.Run("after resolution", func(t *testing.T) {
		m, _, _, _ := newManager(t, &fakeUsers{})
		require.NoError(t, m.CompleteLogin(ctx, "tok", "", ada))

		m.Expire(shared.ErrSessionExpired)
		snap := m.Snapshot()
		assert.Equal(t, StateAnonymous, snap.State)
		assert.Nil(t, snap.User)
	})

	t.Run("before resolution leaves startup pending", func(t *testing.T) {
		m, _, _, _ := newManager(t, &fakeUsers{})

		m.Expire(shared.ErrSessionExpired)
		snap := m.Snapshot()
		assert.Equal(t, StateUnknown, snap.State)
		assert.True(t, snap.Loading)
	})
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	m, _, _, _ := newManager(t, &fakeUsers{})

	updates, stop := m.Subscribe()

	require.NoError(t, m.CompleteLogin(ctx, "tok", "", ada))
	snap := <-updates
	assert.Equal(t, StateAuthenticated, snap.State)

	require.NoError(t, m.Logout(ctx))
	snap = <-updates
	assert.Equal(t, StateAnonymous, snap.State)

	stop()
	stop()
	_, open := <-updates
	assert.False(t, open)

	require.NoError(t, m.SetUser(ctx, grace), "broadcast after unsubscribe must not panic")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "unknown", StateUnknown.String())
	assert.Equal(t, "anonymous", StateAnonymous.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
}

// usersOverPipeline adapts a pipeline to UserFetcher against the current-user endpoint.
type usersOverPipeline struct{ p *pipeline.Pipeline }

func (u usersOverPipeline) CurrentUser(ctx context.Context) (*models.User, error) {
	resp, err := u.p.Do(ctx, pipeline.Request{Method: http.MethodGet, Path: "/api/v1/users/current-user"})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, errors.New(http.StatusText(resp.StatusCode))
	}
	var env models.Envelope[models.User]
	if err := resp.Decode(&env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func TestInitWithRejectedRefresh(t *testing.T) {
	ctx := context.Background()

	var refreshes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == pipeline.RefreshPath {
			refreshes.Add(1)
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	st := store.NewMemory()
	seed(t, st, "expired", ada)

	nav := &tu.RecordingNavigator{}
	p := pipeline.New(st, pipeline.Options{BaseURL: srv.URL, Client: srv.Client(), Navigator: nav})
	m := New(st, Options{Users: usersOverPipeline{p}, Navigator: nav})
	p.OnSessionExpired(m.Expire)

	snap := m.Init(ctx, "/")
	assert.Equal(t, StateAnonymous, snap.State)
	assert.False(t, snap.Loading)
	assert.Empty(t, st.Token(ctx))
	assert.Nil(t, st.User(ctx))
	assert.EqualValues(t, 1, refreshes.Load())
	assert.Equal(t, 1, nav.Count(pipeline.LoginRoute))
}
