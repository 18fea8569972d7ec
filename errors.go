package authflow

import (
	"errors"
	"fmt"
)

// ErrorCode is a structured classification of an auth API failure.
// The REST adapter classifies each server response exactly once; every
// other layer switches on the code and never inspects message text.
type ErrorCode string

const (
	// CodeValidation — input rejected locally before any request.
	CodeValidation ErrorCode = "validation"

	// CodeInvalidCredentials — the email/password pair was rejected.
	CodeInvalidCredentials ErrorCode = "invalid_credentials"

	// CodeAccountUnverified — the account exists but has not completed
	// registration verification.
	CodeAccountUnverified ErrorCode = "account_unverified"

	// CodeRateLimited — the server is throttling attempts.
	CodeRateLimited ErrorCode = "rate_limited"

	// CodeOTPRejected — the submitted code was invalid or expired.
	CodeOTPRejected ErrorCode = "otp_rejected"

	// CodeServer — a 5xx response.
	CodeServer ErrorCode = "server_error"

	// CodeNetwork — the request never produced a response. Treated by
	// callers the same as CodeServer.
	CodeNetwork ErrorCode = "network_error"

	// CodeMalformedResponse — a nominally successful response was
	// missing required data (e.g. no token after verification).
	CodeMalformedResponse ErrorCode = "malformed_response"

	// CodeUnknown — a rejection that matched no known classification.
	CodeUnknown ErrorCode = "unknown"
)

// Error is a classified auth API failure.
type Error struct {
	Code    ErrorCode
	Status  int    // HTTP status, 0 for local and transport errors
	Message string // server wording or local description
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("authflow: %s (%d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("authflow: %s: %s", e.Code, e.Message)
}

// Fields returns the form fields the error should be attached to, so
// callers never re-derive the mapping from message text.
func (e *Error) Fields() []string {
	switch e.Code {
	case CodeInvalidCredentials:
		return []string{"email", "password"}
	case CodeAccountUnverified:
		return []string{"email"}
	case CodeOTPRejected:
		return []string{"otp"}
	default:
		return nil
	}
}

// CodeOf extracts the ErrorCode from err, or CodeUnknown if err carries
// no classified *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// ErrNoSession is returned by SessionStore.Load when no session is
// persisted.
var ErrNoSession = errors.New("authflow: no session")

// ErrNoAllowedPage is returned when an admin's permission set satisfies
// no page in the permission table. The caller must clear the session.
var ErrNoAllowedPage = errors.New("authflow: no allowed page for permission set")

// ValidationError is a field-scoped local validation failure, raised
// before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("authflow: invalid %s: %s", e.Field, e.Reason)
}

// ValidationErrors aggregates per-field validation failures.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "authflow: validation failed"
	}
	return e[0].Error()
}

// Fields returns the names of all offending fields, in declared order.
func (e ValidationErrors) Fields() []string {
	fields := make([]string, len(e))
	for i, ve := range e {
		fields[i] = ve.Field
	}
	return fields
}
