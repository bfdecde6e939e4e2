package model

import (
	"errors"
	"net/http"
)

// Kind classifies a failure for the HTTP boundary.
type Kind string

const (
	KindValidation Kind = "ValidationError"
	KindNotFound   Kind = "NotFoundError"
	KindStorage    Kind = "StorageError"
	KindCache      Kind = "CacheError"
)

// HTTPStatus returns the default status code for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure with a message that is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrStorage    = &Error{Kind: KindStorage}
	ErrCache      = &Error{Kind: KindCache}

	// ErrInvalidRange is returned by ParseRange for malformed or unsatisfiable headers.
	ErrInvalidRange = &Error{Kind: KindValidation, Message: "Invalid range header"}
)

func NewValidationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func NewNotFoundError(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func NewStorageError(msg string, err error) *Error {
	return &Error{Kind: KindStorage, Message: msg, Err: err}
}

func NewCacheError(msg string, err error) *Error {
	return &Error{Kind: KindCache, Message: msg, Err: err}
}

// AsError extracts the classified error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
