// Package apperr defines the closed set of failures the sync service can report.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error. Callers switch on it instead of inspecting messages.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuthorizationDenied
	KindAuthorizationError
	KindMalformedCallback
	KindTokenExchangeFailed
	KindUserInfoFetchFailed
	KindUnverifiedEmail
	KindItemCreationFailed
	KindFetchFailed
	KindInvalidSession
	KindNotFound
	KindInvalidInput
)

var kindNames = map[Kind]string{
	KindUnknown:             "unknown",
	KindAuthorizationDenied: "authorization_denied",
	KindAuthorizationError:  "authorization_error",
	KindMalformedCallback:   "malformed_callback",
	KindTokenExchangeFailed: "token_exchange_failed",
	KindUserInfoFetchFailed: "userinfo_fetch_failed",
	KindUnverifiedEmail:     "unverified_email",
	KindItemCreationFailed:  "item_creation_failed",
	KindFetchFailed:         "fetch_failed",
	KindInvalidSession:      "invalid_session",
	KindNotFound:            "not_found",
	KindInvalidInput:        "invalid_input",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a tagged error. Status is the upstream HTTP status when one was
// involved, zero otherwise.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match when target is an *Error of the same kind. A target
// carrying a non-zero Status must match the status too.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Status == 0 || t.Status == e.Status
}

// Sentinels for errors.Is.
var (
	ErrAuthorizationDenied = &Error{Kind: KindAuthorizationDenied}
	ErrAuthorizationError  = &Error{Kind: KindAuthorizationError}
	ErrMalformedCallback   = &Error{Kind: KindMalformedCallback}
	ErrTokenExchangeFailed = &Error{Kind: KindTokenExchangeFailed}
	ErrUserInfoFetchFailed = &Error{Kind: KindUserInfoFetchFailed}
	ErrUnverifiedEmail     = &Error{Kind: KindUnverifiedEmail, Message: "user email not verified"}
	ErrItemCreationFailed  = &Error{Kind: KindItemCreationFailed}
	ErrFetchFailed         = &Error{Kind: KindFetchFailed}
	ErrInvalidSession      = &Error{Kind: KindInvalidSession}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrInvalidInput        = &Error{Kind: KindInvalidInput}
)

// New creates a tagged error.
func New(kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message}
}

// Wrap creates a tagged error around cause.
func Wrap(kind Kind, status int, cause error, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// StatusOf returns the upstream status recorded in err's chain, or zero.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// HTTPStatus maps an error to the status code our own API answers with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindAuthorizationDenied, KindAuthorizationError, KindInvalidSession:
		return http.StatusUnauthorized
	case KindUnverifiedEmail:
		return http.StatusForbidden
	case KindMalformedCallback, KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindTokenExchangeFailed, KindUserInfoFetchFailed, KindFetchFailed, KindItemCreationFailed:
		if StatusOf(err) == http.StatusUnauthorized {
			return http.StatusUnauthorized
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
