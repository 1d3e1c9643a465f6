package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports that a requested record or persisted state does
	// not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized reports a request the server refused for lack of
	// permission (401/403).
	ErrUnauthorized = errors.New("not permitted")
	// ErrMalformedResponse reports a 2xx response missing fields the
	// contract requires, such as a login response without a token.
	ErrMalformedResponse = errors.New("malformed server response")
	// ErrRequestInFlight reports a submission rejected because an identical
	// one is still outstanding.
	ErrRequestInFlight = errors.New("request already in flight")
	// ErrStateVersion reports persisted state written by an incompatible
	// schema version.
	ErrStateVersion = errors.New("unsupported state version")
)

// APIError carries the HTTP status and server-provided message of a rejected
// request so callers can surface it to the customer.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server rejected request (%d): %s", e.Status, e.Message)
}

// NewAPIError builds an APIError, substituting a generic fallback when the
// server body carried no message.
func NewAPIError(status int, message string) *APIError {
	if message == "" {
		message = "unexpected server error"
	}
	return &APIError{Status: status, Message: message}
}
