// Package errors defines the error taxonomy for backend calls.
//
// Two kinds of failures reach the caller: the backend answered with a
// non-success status (BackendError), or the backend could not be reached
// at all (TransportError). Cache failures never become errors; the cache
// package degrades to a miss and logs.
package errors

import (
	"errors"
	"fmt"
)

// BackendError means the backend was reachable and returned a non-2xx
// status. Status and Body are propagated to the caller unchanged.
type BackendError struct {
	Status int
	Body   []byte
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.Status)
}

// NewBackendError creates a BackendError carrying the backend's status
// code and raw response body.
func NewBackendError(status int, body []byte) *BackendError {
	return &BackendError{Status: status, Body: body}
}

// TransportError means the backend was unreachable: connection refused,
// DNS failure, or timeout.
type TransportError struct {
	underlying error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("backend unreachable: %v", e.underlying)
}

func (e *TransportError) Unwrap() error {
	return e.underlying
}

// NewTransportError wraps a network-level error.
func NewTransportError(err error) *TransportError {
	return &TransportError{underlying: err}
}

// AsBackendError checks if an error is a BackendError.
func AsBackendError(err error) (*BackendError, bool) {
	var be *BackendError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// AsTransportError checks if an error is a TransportError.
func AsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
