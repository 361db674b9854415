package domain

import (
	"errors"
	"fmt"
)

// Failure kinds. Every catalog operation either succeeds or returns an error
// matching exactly one of these through errors.Is.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrDuplicateKey  = errors.New("movie already exists")
	ErrNotFound      = errors.New("movie not found")
	ErrLookupFailure = errors.New("movie lookup failed")
	ErrEmptyCatalog  = errors.New("catalog is empty")
	ErrStorage       = errors.New("storage failure")
)

var kinds = []error{
	ErrInvalidInput,
	ErrDuplicateKey,
	ErrNotFound,
	ErrLookupFailure,
	ErrEmptyCatalog,
	ErrStorage,
}

// Error carries a failure kind together with the operation and cause.
type Error struct {
	Kind  error
	Op    string
	Title string
	Err   error
}

// NewError builds an Error; kind must be one of the package sentinels.
func NewError(kind error, op, title string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Title: title, Err: cause}
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Title != "" {
		msg = fmt.Sprintf("%s: %q", msg, e.Title)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns the failure kind of err, or nil when err matches none.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
