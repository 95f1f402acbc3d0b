package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gudangapp/gudang/internal/api"
	"github.com/gudangapp/gudang/internal/cache"
	"github.com/gudangapp/gudang/internal/model"
)

// fakeTokens records token-store calls.
type fakeTokens struct {
	mu     sync.Mutex
	saved  []string
	forgot int
}

func (f *fakeTokens) Save(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, token)
	return nil
}

func (f *fakeTokens) Forget() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forgot++
	return nil
}

// authServer is a minimal in-memory auth backend.
type authServer struct {
	mu       sync.Mutex
	loggedIn bool
	meCalls  int
}

func (a *authServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		a.loggedIn = true
		a.mu.Unlock()
		json.NewEncoder(w).Encode(api.LoginResponse{Token: "tok-1", UserID: "u1", Username: "alice"})
	})
	mux.HandleFunc("GET /logout", func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		a.loggedIn = false
		a.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		a.meCalls++
		loggedIn := a.loggedIn
		a.mu.Unlock()
		if !loggedIn {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "not authenticated"})
			return
		}
		json.NewEncoder(w).Encode(model.User{ID: "u1", Name: "alice", Role: model.RoleStaff})
	})
	return mux
}

func newTestSession(t *testing.T) (*Session, *cache.Store, *authServer, *fakeTokens) {
	t.Helper()
	backend := &authServer{}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	store := cache.NewStore()
	tokens := &fakeTokens{}
	s := New(store, api.New(srv.URL), tokens)
	t.Cleanup(s.Close)
	return s, store, backend, tokens
}

func TestInitialStateIsLoading(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	assert.Equal(t, StateLoading, s.State())
	assert.Equal(t, DecisionWait, s.GuardProtected())
	assert.Equal(t, DecisionWait, s.GuardGuest())
}

func TestAnonymousWhenNotLoggedIn(t *testing.T) {
	s, _, _, _ := newTestSession(t)

	state := s.Refresh(context.Background())
	assert.Equal(t, StateAnonymous, state)
	assert.Nil(t, s.User())
	assert.Equal(t, DecisionRedirectLogin, s.GuardProtected())
	assert.Equal(t, DecisionAllow, s.GuardGuest())
}

func TestAuthenticatedAfterLogin(t *testing.T) {
	s, _, _, tokens := newTestSession(t)

	require.NoError(t, s.Login(context.Background(), "alice", "secret"))
	assert.Equal(t, StateAuthenticated, s.State())

	user := s.User()
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Name)

	assert.Equal(t, []string{"tok-1"}, tokens.saved)
	assert.Equal(t, DecisionAllow, s.GuardProtected())
	assert.Equal(t, DecisionRedirectHome, s.GuardGuest())
}

func TestIdentityCachedWithinStaleTime(t *testing.T) {
	s, _, backend, _ := newTestSession(t)

	require.NoError(t, s.Login(context.Background(), "alice", "secret"))
	backend.mu.Lock()
	calls := backend.meCalls
	backend.mu.Unlock()

	s.Refresh(context.Background())
	s.Refresh(context.Background())

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, calls, backend.meCalls, "fresh identity entry is served from cache")
}

func TestLogoutClearsSynchronously(t *testing.T) {
	s, store, _, tokens := newTestSession(t)
	require.NoError(t, s.Login(context.Background(), "alice", "secret"))
	store.Set(cache.K("users"), []model.User{{ID: "u1"}})

	require.NoError(t, s.Logout(context.Background()))

	assert.Equal(t, StateAnonymous, s.State())
	assert.Nil(t, s.User())
	_, ok := store.Get(cache.K("users"))
	assert.False(t, ok, "dependent user list is evicted")
	assert.Equal(t, 1, tokens.forgot)
	assert.Equal(t, DecisionRedirectLogin, s.GuardProtected())
}

func TestLogoutClearsStateEvenWhenServerFails(t *testing.T) {
	backend := &authServer{loggedIn: true}
	srv := httptest.NewServer(backend.handler())
	store := cache.NewStore()
	s := New(store, api.New(srv.URL), nil)
	defer s.Close()

	require.Equal(t, StateAuthenticated, s.Refresh(context.Background()))

	srv.Close() // server unreachable from here on
	err := s.Logout(context.Background())
	assert.Error(t, err)
	assert.Equal(t, StateAnonymous, s.State(), "local state is cleared regardless")
}
