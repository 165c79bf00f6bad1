package domain

import "errors"

// Error kinds. Callers match them with errors.Is.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrDuplicateAccount = errors.New("duplicate account")
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid or expired token")
	ErrForbidden        = errors.New("forbidden")
)

// Error pairs an error kind with the message shown to API clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// NewError builds a domain error of the given kind.
func NewError(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}

func InvalidInput(message string) error { return NewError(ErrInvalidInput, message) }

func NotFound(message string) error { return NewError(ErrNotFound, message) }

func Forbidden(message string) error { return NewError(ErrForbidden, message) }
