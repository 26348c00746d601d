package domain

import (
	"errors"
	"fmt"
)

var (
	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidCookie   = errors.New("invalid session cookie")
	ErrExpiredCookie   = errors.New("expired session cookie")

	// State token errors
	ErrInvalidState   = errors.New("invalid state token")
	ErrExpiredState   = errors.New("expired state token")
	ErrMalformedState = errors.New("malformed state token")

	// Broker errors
	ErrTokenExchange  = errors.New("token exchange failed")
	ErrMissingProfile = errors.New("token response carries no profile")

	// Config errors
	ErrMissingConfig = errors.New("missing required configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// FailureCode is the stable identifier of a failed authentication attempt.
// It is the value carried in the failure redirect's message parameter.
type FailureCode string

const (
	// Request phase
	FailureMissingClientID     FailureCode = "missing_client_id"
	FailureMissingClientSecret FailureCode = "missing_client_secret"

	// Callback phase, before the token exchange
	FailureCallbackError FailureCode = "callback_error"
	FailureCSRFDetected  FailureCode = "csrf_detected"

	// Token exchange
	FailureInvalidCredentials FailureCode = "invalid_credentials"
	FailureTimeout            FailureCode = "timeout"
	FailureFailedToConnect    FailureCode = "failed_to_connect"

	// Identity normalization and session integrity
	FailureMissingIdentifier    FailureCode = "missing_identifier"
	FailureInvalidSession       FailureCode = "invalid_session"
	FailureConnectionMismatch   FailureCode = "connection_mismatch"
	FailureOrganizationMismatch FailureCode = "organization_mismatch"
)

// Failure is the error returned by both strategy phases when the attempt
// must be routed to the failure endpoint.
type Failure struct {
	Code    FailureCode
	Message string
	Err     error
}

// NewFailure builds a Failure with a formatted message.
func NewFailure(code FailureCode, format string, args ...any) *Failure {
	return &Failure{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches the underlying cause.
func (f *Failure) Wrap(err error) *Failure {
	f.Err = err
	return f
}

func (f *Failure) Error() string {
	if f.Message == "" {
		return string(f.Code)
	}
	return string(f.Code) + ": " + f.Message
}

func (f *Failure) Unwrap() error { return f.Err }

// SessionIntegrity reports whether the failure belongs to the class raised
// after a successful token exchange, when the broker-asserted identity does
// not match what the session requested.
func (f *Failure) SessionIntegrity() bool {
	switch f.Code {
	case FailureInvalidSession, FailureConnectionMismatch, FailureOrganizationMismatch:
		return true
	}
	return false
}

// AsFailure extracts a *Failure from err's chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
