package service

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInsufficientBudget = errors.New("insufficient budget")
)

// businessError pairs a sentinel with the exact user-facing message. Callers
// match the sentinel with errors.Is; the HTTP layer returns Error() verbatim.
type businessError struct {
	kind error
	msg  string
}

func (e *businessError) Error() string { return e.msg }

func (e *businessError) Unwrap() error { return e.kind }

func notFound(msg string) error {
	return &businessError{kind: ErrNotFound, msg: msg}
}

func invalid(msg string) error {
	return &businessError{kind: ErrInvalidInput, msg: msg}
}

func badTransition(msg string) error {
	return &businessError{kind: ErrInvalidTransition, msg: msg}
}

func forbidden(msg string) error {
	return &businessError{kind: ErrPermissionDenied, msg: msg}
}

func insufficientBudget(msg string) error {
	return &businessError{kind: ErrInsufficientBudget, msg: msg}
}
