package api

import (
	"errors"
	"fmt"
)

// Kind classifies an API failure. Callers branch on the kind, never on
// status codes or message text.
type Kind string

const (
	// KindNetwork means the request never produced a response.
	KindNetwork Kind = "network"
	// KindAuth means the server rejected the session credentials (401).
	KindAuth Kind = "auth"
	// KindValidation means the server rejected the payload (4xx).
	KindValidation Kind = "validation"
	// KindNotFound means the addressed resource does not exist (404).
	KindNotFound Kind = "notfound"
	// KindServer means a 5xx or a response of unexpected shape.
	KindServer Kind = "server"
)

// Error is the normalized form of every API failure. The message is the
// single string extracted from the response body, whether the server sent
// a JSON {"error": ...}, a JSON {"message": ...}, or plain text.
type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("api: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("api: %s (%d): %s", e.Kind, e.Status, e.Message)
}

// ErrKind returns the kind of err if it is an API error, or KindNetwork
// for anything else that reached the caller from the transport.
func ErrKind(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindNetwork
}

// IsAuth reports whether err is a credential rejection.
func IsAuth(err error) bool {
	return ErrKind(err) == KindAuth
}

// kindForStatus maps an HTTP status to an error kind.
func kindForStatus(status int) Kind {
	switch {
	case status == 401:
		return KindAuth
	case status == 404:
		return KindNotFound
	case status >= 400 && status < 500:
		return KindValidation
	default:
		return KindServer
	}
}
