package loginflow

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
	"github.com/gudangapp/gudang/internal/session"
)

// loginBackend is an in-memory auth server for driving the flow.
type loginBackend struct {
	mu        sync.Mutex
	users     map[string]string // name -> id
	passwords map[string]string // name -> password
	redirect  bool              // answer set-password with the redirect flag
	loggedIn  string

	patchCalls int
}

func newLoginBackend() *loginBackend {
	return &loginBackend{
		users:     map[string]string{},
		passwords: map[string]string{},
		redirect:  true,
	}
}

func (b *loginBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /check-user", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		defer b.mu.Unlock()
		id, ok := b.users[req.Name]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "user not found"})
			return
		}
		_, hasPassword := b.passwords[req.Name]
		json.NewEncoder(w).Encode(api.CheckUserResponse{ID: id, Name: req.Name, PasswordExists: hasPassword})
	})
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name     string `json:"name"`
			Password string `json:"password"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.passwords[req.Name] != req.Password || req.Password == "" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
			return
		}
		b.loggedIn = req.Name
		json.NewEncoder(w).Encode(api.LoginResponse{Token: "tok", UserID: b.users[req.Name], Username: req.Name})
	})
	mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.loggedIn == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(model.User{ID: b.users[b.loggedIn], Name: b.loggedIn, Role: model.RoleStaff})
	})
	mux.HandleFunc("PATCH /users/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req model.UpdateUser
		json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		defer b.mu.Unlock()
		b.patchCalls++
		if req.Password == nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "password required"})
			return
		}
		for name, id := range b.users {
			if id == r.PathValue("id") {
				b.passwords[name] = *req.Password
			}
		}
		json.NewEncoder(w).Encode(api.UpdateUserResponse{Redirect: b.redirect && req.FromLogin})
	})
	return mux
}

func newTestFlow(t *testing.T, backend *loginBackend) (*Flow, *session.Session) {
	t.Helper()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	client := api.New(srv.URL)
	sess := session.New(cache.NewStore(), client, nil)
	t.Cleanup(sess.Close)
	return New(client, sess), sess
}

func TestExistingUserGoesToPasswordStep(t *testing.T) {
	backend := newLoginBackend()
	backend.users["alice"] = "u1"
	backend.passwords["alice"] = "correct-horse"
	flow, _ := newTestFlow(t, backend)

	require.NoError(t, flow.SubmitName(context.Background(), "alice"))
	assert.Equal(t, StepPassword, flow.Step())
	assert.Equal(t, "u1", flow.UserID())
	assert.Empty(t, flow.Err())
}

func TestUnknownNameStaysWithError(t *testing.T) {
	flow, _ := newTestFlow(t, newLoginBackend())

	require.NoError(t, flow.SubmitName(context.Background(), "nobody"))
	assert.Equal(t, StepName, flow.Step())
	assert.NotEmpty(t, flow.Err())
	assert.Empty(t, flow.UserID())
}

func TestWrongThenCorrectPassword(t *testing.T) {
	backend := newLoginBackend()
	backend.users["alice"] = "u1"
	backend.passwords["alice"] = "correct-horse"
	flow, sess := newTestFlow(t, backend)

	require.NoError(t, flow.SubmitName(context.Background(), "alice"))

	require.NoError(t, flow.SubmitPassword(context.Background(), "wrong"))
	assert.Equal(t, StepPassword, flow.Step(), "failure keeps the password step")
	assert.NotEmpty(t, flow.Err())

	require.NoError(t, flow.SubmitPassword(context.Background(), "correct-horse"))
	assert.Equal(t, StepDone, flow.Step())
	assert.Equal(t, session.StateAuthenticated, sess.State())
}

func TestBackFromPasswordClearsError(t *testing.T) {
	backend := newLoginBackend()
	backend.users["alice"] = "u1"
	backend.passwords["alice"] = "correct-horse"
	flow, _ := newTestFlow(t, backend)

	require.NoError(t, flow.SubmitName(context.Background(), "alice"))
	require.NoError(t, flow.SubmitPassword(context.Background(), "wrong"))
	require.NotEmpty(t, flow.Err())

	require.NoError(t, flow.Back())
	assert.Equal(t, StepName, flow.Step())
	assert.Empty(t, flow.Err())
}

func TestNewUserCreatePasswordAndAutoLogin(t *testing.T) {
	backend := newLoginBackend()
	backend.users["newuser"] = "u9"
	flow, sess := newTestFlow(t, backend)

	require.NoError(t, flow.SubmitName(context.Background(), "newuser"))
	assert.Equal(t, StepCreatePassword, flow.Step())

	// Below the minimum length: rejected client-side, no network call.
	require.NoError(t, flow.SubmitNewPassword(context.Background(), "abc"))
	assert.Equal(t, StepCreatePassword, flow.Step())
	assert.NotEmpty(t, flow.Err())
	backend.mu.Lock()
	assert.Equal(t, 0, backend.patchCalls, "short password must not reach the server")
	backend.mu.Unlock()

	require.NoError(t, flow.SubmitNewPassword(context.Background(), "abcd"))
	assert.Equal(t, StepDone, flow.Step())
	assert.Equal(t, session.StateAuthenticated, sess.State())
}

func TestMinPasswordLengthCountsCharacters(t *testing.T) {
	backend := newLoginBackend()
	backend.users["newuser"] = "u9"
	flow, _ := newTestFlow(t, backend)

	require.NoError(t, flow.SubmitName(context.Background(), "newuser"))

	// Three characters encoded as six bytes: still too short.
	require.NoError(t, flow.SubmitNewPassword(context.Background(), "ααα"))
	assert.Equal(t, StepCreatePassword, flow.Step())
	assert.NotEmpty(t, flow.Err())
	backend.mu.Lock()
	assert.Equal(t, 0, backend.patchCalls, "short password must not reach the server")
	backend.mu.Unlock()

	// Four characters pass regardless of byte length.
	require.NoError(t, flow.SubmitNewPassword(context.Background(), "αβγδ"))
	assert.Equal(t, StepDone, flow.Step())
}

func TestCreatePasswordWithoutRedirectFlag(t *testing.T) {
	backend := newLoginBackend()
	backend.users["newuser"] = "u9"
	backend.redirect = false
	flow, sess := newTestFlow(t, backend)

	require.NoError(t, flow.SubmitName(context.Background(), "newuser"))
	require.NoError(t, flow.SubmitNewPassword(context.Background(), "abcd"))

	assert.Equal(t, StepCreatePassword, flow.Step(), "no auto-login without the redirect flag")
	assert.NotEmpty(t, flow.Notice())
	assert.Empty(t, flow.Err())
	assert.NotEqual(t, session.StateAuthenticated, sess.State())
}

func TestEventsRejectedInWrongStep(t *testing.T) {
	flow, _ := newTestFlow(t, newLoginBackend())

	assert.ErrorIs(t, flow.SubmitPassword(context.Background(), "x"), ErrBadStep)
	assert.ErrorIs(t, flow.SubmitNewPassword(context.Background(), "abcd"), ErrBadStep)
	assert.ErrorIs(t, flow.Back(), ErrBadStep)
}
