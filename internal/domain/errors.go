// Package domain provides the client-protocol types and canonical error
// kinds shared by both chat backends.
package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind categorizes a gateway failure.
type ErrorKind string

const (
	// KindNotAuthenticated means no usable credential is present.
	KindNotAuthenticated ErrorKind = "not_authenticated"

	// KindCredentialRefreshFailed means a refresh was attempted and
	// rejected. The caller must re-login; the gateway does not retry.
	KindCredentialRefreshFailed ErrorKind = "credential_refresh_failed"

	// KindBackendUnavailable means every candidate endpoint failed.
	KindBackendUnavailable ErrorKind = "backend_unavailable"

	// KindLocalServiceNotInitialized means the local RPC endpoint or its
	// CSRF token has not been discovered.
	KindLocalServiceNotInitialized ErrorKind = "local_service_not_initialized"

	// KindBackendProtocolError means the backend returned a malformed or
	// empty response body.
	KindBackendProtocolError ErrorKind = "backend_protocol_error"

	// KindResponseTimeout means the poll loop exceeded its deadline.
	KindResponseTimeout ErrorKind = "response_timeout"
)

// GatewayError is the typed error surfaced to callers of the chat API.
type GatewayError struct {
	Kind    ErrorKind
	Message string
	Err     error // underlying cause, if any
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// HTTPStatusCode maps the error kind to a response status.
func (e *GatewayError) HTTPStatusCode() int {
	switch e.Kind {
	case KindNotAuthenticated, KindCredentialRefreshFailed:
		return http.StatusUnauthorized
	case KindBackendUnavailable, KindLocalServiceNotInitialized:
		return http.StatusServiceUnavailable
	case KindResponseTimeout:
		return http.StatusGatewayTimeout
	case KindBackendProtocolError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrNotAuthenticated creates a not-authenticated error.
func ErrNotAuthenticated(message string) *GatewayError {
	return &GatewayError{Kind: KindNotAuthenticated, Message: message}
}

// ErrCredentialRefreshFailed creates a refresh-failed error.
func ErrCredentialRefreshFailed(message string, err error) *GatewayError {
	return &GatewayError{Kind: KindCredentialRefreshFailed, Message: message, Err: err}
}

// ErrBackendUnavailable creates an all-endpoints-failed error carrying
// the last underlying cause.
func ErrBackendUnavailable(message string, err error) *GatewayError {
	return &GatewayError{Kind: KindBackendUnavailable, Message: message, Err: err}
}

// ErrLocalServiceNotInitialized creates a local-service error.
func ErrLocalServiceNotInitialized(message string) *GatewayError {
	return &GatewayError{Kind: KindLocalServiceNotInitialized, Message: message}
}

// ErrBackendProtocolError creates a malformed-response error.
func ErrBackendProtocolError(message string, err error) *GatewayError {
	return &GatewayError{Kind: KindBackendProtocolError, Message: message, Err: err}
}

// ErrResponseTimeout creates a poll-deadline error.
func ErrResponseTimeout(message string) *GatewayError {
	return &GatewayError{Kind: KindResponseTimeout, Message: message}
}

// KindOf returns the error kind of err, or "" when err is not a
// GatewayError.
func KindOf(err error) ErrorKind {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}
