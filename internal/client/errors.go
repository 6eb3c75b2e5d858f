package client

import (
	"errors"
	"fmt"
)

// Kind classifies a failed request.
type Kind string

const (
	// KindAuthExpired is a 401 outside the login flow: the session is gone.
	KindAuthExpired Kind = "auth_expired"
	// KindUnauthorized is a 401 from login or register, i.e. bad credentials.
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	// KindValidation is any other rejection that carried a readable message.
	KindValidation   Kind = "validation"
	KindConnectivity Kind = "connectivity"
	KindCanceled     Kind = "canceled"
	KindUnexpected   Kind = "unexpected"
)

// Error is the classified failure every client method returns.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the classification of err, or "" when err is not a client error.
func KindOf(err error) Kind {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	return ""
}

const (
	msgSessionExpired = "Session expired. Please login again."
	msgForbidden      = "You do not have permission to perform this action."
	msgConnectivity   = "Unable to reach the server. Please check your connection."
	msgUnexpected     = "An unexpected error occurred."
	msgBadCredentials = "Invalid username or password"
)
