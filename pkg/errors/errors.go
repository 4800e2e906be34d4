package errors

import (
	"fmt"
)

// ValidationError captures malformed input detected before any network call:
// a bad manifest field, a duplicate command name, or a credential with the
// wrong surface shape.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// AuthError represents a 401/403 from the identity endpoint. Never retried.
type AuthError struct {
	StatusCode int
	Message    string
}

// NewAuthError constructs an AuthError for the given status code.
func NewAuthError(statusCode int, message string) error {
	return &AuthError{StatusCode: statusCode, Message: message}
}

func (e *AuthError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return fmt.Sprintf("authentication failed (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("authentication failed (%d)", e.StatusCode)
}

// MembershipError indicates the membership check itself failed, as opposed
// to a clean negative result.
type MembershipError struct {
	ScopeID string
	Err     error
}

// NewMembershipError constructs a MembershipError.
func NewMembershipError(scopeID string, err error) error {
	return &MembershipError{ScopeID: scopeID, Err: err}
}

func (e *MembershipError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("membership check failed for scope %s: %v", e.ScopeID, e.Err)
}

// Unwrap exposes the underlying error.
func (e *MembershipError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// RateLimitError indicates the 429 retry budget for a single request was
// exhausted.
type RateLimitError struct {
	Method   string
	URL      string
	Attempts int
}

// NewRateLimitError constructs a RateLimitError.
func NewRateLimitError(method, url string, attempts int) error {
	return &RateLimitError{Method: method, URL: url, Attempts: attempts}
}

func (e *RateLimitError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("rate limit retries exhausted after %d attempts: %s %s", e.Attempts, e.Method, e.URL)
}

// TransportError represents a non-429 HTTP failure or a network failure that
// survived its retry allowance. Structural, never retried further.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

// NewTransportError constructs a TransportError for an HTTP status failure.
func NewTransportError(method, url string, statusCode int, body string) error {
	return &TransportError{Method: method, URL: url, StatusCode: statusCode, Body: body}
}

// NewNetworkError constructs a TransportError for a network-level failure.
func NewNetworkError(method, url string, err error) error {
	return &TransportError{Method: method, URL: url, Err: err}
}

func (e *TransportError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("transport error: %s %s: %v", e.Method, e.URL, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("transport error: %s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("transport error: %s %s: status %d", e.Method, e.URL, e.StatusCode)
}

// Unwrap exposes the underlying network error, if any.
func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
