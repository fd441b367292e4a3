package apperr

import (
	"errors"
	"fmt"
)

// Kind discriminates the failure classes the services can return.
// Consumers that translate errors (e.g. the HTTP layer) are expected
// to switch over every Kind.
type Kind int

const (
	KindInvalidInput Kind = iota
	KindConflict
	KindUnauthorized
	KindNotFound
	KindSessionExpired
	KindHashingFailure
	KindQueryError
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindSessionExpired:
		return "session_expired"
	case KindHashingFailure:
		return "hashing_failure"
	case KindQueryError:
		return "query_error"
	default:
		return "unknown"
	}
}

// Error is the single error type the account and session services
// return. Message is safe to show to clients for the domain kinds;
// infrastructure kinds (HashingFailure, QueryError) keep the cause in
// Err and must not leak it past the transport boundary.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidInput reports a request that failed validation.
func InvalidInput(message string) *Error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

// Conflict reports a uniqueness violation.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Unauthorized reports bad credentials. The message is deliberately
// the same for unknown identifiers and wrong passwords.
func Unauthorized() *Error {
	return &Error{Kind: KindUnauthorized, Message: "invalid username or password"}
}

// NotFound reports a missing session token.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// SessionExpired reports a session past its expiry.
func SessionExpired() *Error {
	return &Error{Kind: KindSessionExpired, Message: "session has expired"}
}

// HashingFailure wraps an error from the password hash engine.
func HashingFailure(err error) *Error {
	return &Error{Kind: KindHashingFailure, Message: "password hashing failed", Err: err}
}

// QueryError wraps a store-layer failure.
func QueryError(err error) *Error {
	return &Error{Kind: KindQueryError, Message: "database query failed", Err: err}
}

// KindOf extracts the Kind from err. Errors that did not originate in
// this package report KindQueryError so callers treat them as
// infrastructure failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindQueryError
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
