package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Generic user-facing messages. Transport internals and raw server output are
// never surfaced through these.
const (
	genericServerMessage  = "Something went wrong. Please try again."
	genericNetworkMessage = "Network error. Please try again."
	genericAuthMessage    = "Your session has expired. Please log in again."
)

// ValidationError is a client-side, field-level failure produced before any
// network call is issued. Validation is short-circuiting: the first violated
// rule wins, so a ValidationError carries exactly one message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UserMessage returns the text shown to the user.
func (e *ValidationError) UserMessage() string {
	return e.Message
}

// ServerError is a 4xx/5xx response. When the server supplied a structured
// detail message it is surfaced verbatim; otherwise a generic fallback is used.
type ServerError struct {
	StatusCode int
	Detail     string
}

func (e *ServerError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("server error (%d)", e.StatusCode)
}

func (e *ServerError) UserMessage() string {
	if e.Detail != "" {
		return e.Detail
	}
	return genericServerMessage
}

// AuthError marks a rejected bearer token, expired or invalid. It is distinct
// from ServerError so callers can force a logout instead of showing a retry
// message.
type AuthError struct {
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (%d)", e.StatusCode)
}

func (e *AuthError) UserMessage() string {
	return genericAuthMessage
}

// NetworkError is a transport-level failure: DNS, connection refused, timeout,
// or an unreadable response body. The wrapped error is kept for logs only.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) UserMessage() string {
	return genericNetworkMessage
}

// UserMessage maps any error from the gateway or a manager to the single line
// shown in a toast. Unknown errors fall back to the generic server message.
func UserMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.UserMessage()
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.UserMessage()
	}
	var se *ServerError
	if errors.As(err, &se) {
		return se.UserMessage()
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.UserMessage()
	}
	return genericServerMessage
}

// IsAuthError reports whether err is (or wraps) an AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// statusToError converts a non-2xx status plus optional detail into the typed
// error for that status class. A 401 is an AuthError only when a bearer token
// was presented: rejecting a token means the session is dead, while a 401 on
// an unauthenticated call (a failed login) is an ordinary server rejection
// whose detail must reach the user.
func statusToError(status int, detail string, authed bool) error {
	if status == http.StatusUnauthorized && authed {
		return &AuthError{StatusCode: status}
	}
	return &ServerError{StatusCode: status, Detail: detail}
}
