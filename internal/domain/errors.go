package domain

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	ErrKindNetwork    ErrorKind = "network"
	ErrKindRemote     ErrorKind = "remote"
	ErrKindValidation ErrorKind = "validation"
	ErrKindPayment    ErrorKind = "payment"
	ErrKindSystem     ErrorKind = "system"
)

// Error is the normalized failure carried across the sync and checkout
// paths. Status is the remote HTTP status when Kind is remote, zero
// otherwise.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Recoverable reports whether retrying the operation can succeed.
// Network failures, 5xx responses and system errors are transient;
// validation, payment and 4xx responses are terminal.
func (e *Error) Recoverable() bool {
	switch e.Kind {
	case ErrKindNetwork, ErrKindSystem:
		return true
	case ErrKindRemote:
		return e.Status >= http.StatusInternalServerError
	}
	return false
}

func NewNetworkError(err error) *Error {
	return &Error{Kind: ErrKindNetwork, Message: "request failed", Err: err}
}

func NewRemoteError(status int, message string) *Error {
	return &Error{Kind: ErrKindRemote, Status: status, Message: message}
}

func NewValidationError(message string) *Error {
	return &Error{Kind: ErrKindValidation, Message: message}
}

func NewPaymentError(message string) *Error {
	return &Error{Kind: ErrKindPayment, Message: message}
}

func NewSystemError(err error) *Error {
	return &Error{Kind: ErrKindSystem, Message: "internal failure", Err: err}
}

// Normalize coerces an arbitrary error into an *Error, preserving one
// that already is.
func Normalize(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return &Error{Kind: ErrKindSystem, Message: err.Error(), Err: err}
}
