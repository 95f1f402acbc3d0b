// Package loginflow implements the multi-step login machine: enter a name,
// then either type an existing password or create one and be signed in
// automatically.
package loginflow

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/gudangapp/gudang/internal/api"
	"github.com/gudangapp/gudang/internal/cache"
	"github.com/gudangapp/gudang/internal/model"
	"github.com/gudangapp/gudang/internal/session"
)

// Step is the flow's current state.
type Step string

const (
	// StepName asks for the account name.
	StepName Step = "name"
	// StepPassword asks for the password of an existing account.
	StepPassword Step = "password"
	// StepCreatePassword asks a first-time user to choose a password.
	StepCreatePassword Step = "create-password"
	// StepDone means authentication succeeded and the flow is abandoned.
	StepDone Step = "done"
)

// MinPasswordLength is the minimum password length in characters, enforced
// client-side before any network call.
const MinPasswordLength = 4

// ErrBadStep is returned when an event does not apply to the current step.
var ErrBadStep = errors.New("event not valid in current step")

// User-facing error surfaces, one per failure mode.
const (
	msgUserNotFound    = "user not found"
	msgLoginFailed     = "login failed, check the password"
	msgCreateFailed    = "could not create password"
	msgAutoLoginFailed = "automatic login failed, sign in manually"
	msgPasswordShort   = "password must be at least 4 characters"
)

// Flow drives one login attempt. It is mounted on the login page and
// abandoned once the session authenticates.
type Flow struct {
	client  *api.Client
	session *session.Session

	checkUser   *cache.Mutation[string, *api.CheckUserResponse]
	setPassword *cache.Mutation[string, *api.UpdateUserResponse]

	step   Step
	name   string
	userID string
	errMsg string
	notice string
}

// New creates a flow in the name step.
func New(client *api.Client, sess *session.Session) *Flow {
	f := &Flow{client: client, session: sess, step: StepName}
	f.checkUser = cache.NewMutation(func(ctx context.Context, name string) (*api.CheckUserResponse, error) {
		return client.CheckUser(ctx, name)
	}, cache.MutationOptions[string, *api.CheckUserResponse]{})
	f.setPassword = cache.NewMutation(func(ctx context.Context, password string) (*api.UpdateUserResponse, error) {
		return client.UpdateUser(ctx, f.userID, model.UpdateUser{Password: &password, FromLogin: true})
	}, cache.MutationOptions[string, *api.UpdateUserResponse]{})
	return f
}

// Step returns the current step.
func (f *Flow) Step() Step { return f.step }

// Name returns the submitted account name.
func (f *Flow) Name() string { return f.name }

// UserID returns the account id resolved by the name check.
func (f *Flow) UserID() string { return f.userID }

// Err returns the current user-facing error surface, empty when none.
func (f *Flow) Err() string { return f.errMsg }

// Notice returns the current informational message, empty when none.
func (f *Flow) Notice() string { return f.notice }

// Pending reports whether a flow request is in flight.
func (f *Flow) Pending() bool {
	return f.checkUser.Status() == cache.StatusPending ||
		f.setPassword.Status() == cache.StatusPending
}

// SubmitName resolves the account: an existing password leads to the
// password step, a passwordless account to the create-password step. An
// unknown name keeps the flow in the name step with an error surface.
func (f *Flow) SubmitName(ctx context.Context, name string) error {
	if f.step != StepName {
		return ErrBadStep
	}
	f.errMsg = ""

	resp, err := f.checkUser.MutateAsync(ctx, name)
	if err != nil {
		f.errMsg = msgUserNotFound
		f.userID = ""
		return nil
	}

	f.name = name
	f.userID = resp.ID
	if resp.PasswordExists {
		f.step = StepPassword
	} else {
		f.step = StepCreatePassword
	}
	return nil
}

// SubmitPassword attempts the login. Success authenticates the session and
// terminates the flow; failure stays in the password step.
func (f *Flow) SubmitPassword(ctx context.Context, password string) error {
	if f.step != StepPassword {
		return ErrBadStep
	}
	f.errMsg = ""

	if err := f.session.Login(ctx, f.name, password); err != nil {
		f.errMsg = msgLoginFailed
		return nil
	}
	f.step = StepDone
	return nil
}

// SubmitNewPassword sets the first password and, when the server answers
// with its redirect flag, signs in automatically. Too-short passwords are
// rejected before any network call. Either step failing keeps the flow in
// the create-password step with a distinct error surface.
func (f *Flow) SubmitNewPassword(ctx context.Context, password string) error {
	if f.step != StepCreatePassword {
		return ErrBadStep
	}
	f.errMsg = ""
	f.notice = ""

	if utf8.RuneCountInString(password) < MinPasswordLength {
		f.errMsg = msgPasswordShort
		return nil
	}

	resp, err := f.setPassword.MutateAsync(ctx, password)
	if err != nil {
		f.errMsg = msgCreateFailed
		return nil
	}

	if !resp.Redirect {
		// Password is set but the server did not ask for auto-login.
		f.notice = "password created, sign in to continue"
		return nil
	}

	if err := f.session.Login(ctx, f.name, password); err != nil {
		f.errMsg = msgAutoLoginFailed
		return nil
	}
	f.step = StepDone
	return nil
}

// Back returns from the password step to the name step, clearing the
// error surface. There is no transition out of create-password.
func (f *Flow) Back() error {
	if f.step != StepPassword {
		return ErrBadStep
	}
	f.step = StepName
	f.errMsg = ""
	return nil
}
