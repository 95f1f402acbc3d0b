// Package session projects the cached "me" query into an authentication
// state machine and the route-guard decisions derived from it.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/gudangapp/gudang/internal/api"
	"github.com/gudangapp/gudang/internal/cache"
	"github.com/gudangapp/gudang/internal/model"
)

// State is the session's authentication state.
type State string

const (
	// StateLoading means the identity query has not resolved yet.
	StateLoading State = "loading"
	// StateAuthenticated means a user is signed in.
	StateAuthenticated State = "authenticated"
	// StateAnonymous means nobody is signed in.
	StateAnonymous State = "anonymous"
)

// Routes the guards redirect to.
const (
	LoginRoute = "/login"
	HomeRoute  = "/"
)

// Decision is a route guard's verdict for the current session state.
type Decision string

const (
	// DecisionWait means the session is still loading; render nothing yet.
	DecisionWait Decision = "wait"
	// DecisionAllow means the guarded content may render.
	DecisionAllow Decision = "allow"
	// DecisionRedirectLogin sends the visitor to the login route.
	DecisionRedirectLogin Decision = "redirect-login"
	// DecisionRedirectHome sends the visitor to the home route.
	DecisionRedirectHome Decision = "redirect-home"
)

// meStaleTime matches how long the identity result is trusted without a
// refetch.
const meStaleTime = 5 * time.Minute

// MeKey is the cache key of the identity query.
func MeKey() cache.Key {
	return cache.K("me")
}

// TokenStore is the persistent credential carrier the session clears on
// logout. May be nil when the console runs without one.
type TokenStore interface {
	Save(token string) error
	Forget() error
}

// Session derives the authentication state from the cached identity query
// and drives logout.
type Session struct {
	store  *cache.Store
	client *api.Client
	tokens TokenStore
	query  *cache.Query[*model.User]
}

// New mounts the identity query on the store. The session starts loading
// until Refresh resolves it.
func New(store *cache.Store, client *api.Client, tokens TokenStore) *Session {
	s := &Session{store: store, client: client, tokens: tokens}
	s.query = cache.NewQuery(store, MeKey(), func(ctx context.Context) (*model.User, error) {
		return client.Me(ctx)
	}, cache.QueryOptions{StaleTime: meStaleTime, Retries: 1})
	return s
}

// Close unmounts the identity query.
func (s *Session) Close() {
	s.query.Close()
}

// Refresh resolves the identity query (cache-aware) and returns the
// resulting state.
func (s *Session) Refresh(ctx context.Context) State {
	s.query.Run(ctx)
	return s.State()
}

// State projects the cached identity entry into a session state: pending
// or idle means loading; a successful non-null user means authenticated;
// a null user or a terminal error means anonymous.
func (s *Session) State() State {
	e, ok := s.store.Get(MeKey())
	if !ok {
		return StateLoading
	}
	switch e.Status {
	case cache.StatusIdle, cache.StatusPending:
		return StateLoading
	case cache.StatusSuccess:
		if user, ok := e.Data.(*model.User); ok && user != nil {
			return StateAuthenticated
		}
		return StateAnonymous
	default:
		return StateAnonymous
	}
}

// User returns the signed-in user, or nil when not authenticated.
func (s *Session) User() *model.User {
	e, ok := s.store.Get(MeKey())
	if !ok || e.Status != cache.StatusSuccess {
		return nil
	}
	user, ok := e.Data.(*model.User)
	if !ok {
		return nil
	}
	return user
}

// Login authenticates, persists the fallback token and refreshes the
// identity entry.
func (s *Session) Login(ctx context.Context, name, password string) error {
	resp, err := s.client.Login(ctx, name, password)
	if err != nil {
		return err
	}
	if s.tokens != nil && resp.Token != "" {
		if err := s.tokens.Save(resp.Token); err != nil {
			slog.Warn("could not persist session token", "error", err)
		}
	}
	s.query.Refetch(ctx)
	return nil
}

// Logout clears the identity entry to null synchronously, so guards never
// see stale authenticated state. It then evicts dependent cached lists,
// forgets the stored token, and ends the server session.
func (s *Session) Logout(ctx context.Context) error {
	s.store.Set(MeKey(), nil)
	s.store.Remove(cache.K("users"))

	if s.tokens != nil {
		if err := s.tokens.Forget(); err != nil {
			slog.Warn("could not forget stored token", "error", err)
		}
	}

	if err := s.client.Logout(ctx); err != nil {
		slog.Warn("server logout failed", "error", err)
		return err
	}
	slog.Info("logged out")
	return nil
}

// GuardProtected decides whether protected content may render.
func (s *Session) GuardProtected() Decision {
	switch s.State() {
	case StateLoading:
		return DecisionWait
	case StateAuthenticated:
		return DecisionAllow
	default:
		return DecisionRedirectLogin
	}
}

// GuardGuest decides whether guest-only content (the login page) may
// render.
func (s *Session) GuardGuest() Decision {
	switch s.State() {
	case StateLoading:
		return DecisionWait
	case StateAnonymous:
		return DecisionAllow
	default:
		return DecisionRedirectHome
	}
}
