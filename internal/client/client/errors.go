package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Failure classes of a call to the auth service.
var (
	// ErrUnavailable: no response was received (network failure, timeout).
	ErrUnavailable = errors.New("server unavailable")
	// ErrUnauthorized: 401, the credential is missing, expired or invalid.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden: 403, the credential's role may not use the endpoint.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation: any other 4xx, usually with a message for the form.
	ErrValidation = errors.New("request rejected")
	// ErrServer: 5xx.
	ErrServer = errors.New("server error")
)

// APIError is a non-2xx response. It unwraps to one of the sentinels above.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("auth service responded with status %d", e.Status)
	}
	return fmt.Sprintf("auth service responded with status %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Status == http.StatusForbidden:
		return ErrForbidden
	case e.Status >= http.StatusInternalServerError:
		return ErrServer
	default:
		return ErrValidation
	}
}

// MessageOf returns the server-provided message carried by err, or fallback.
func MessageOf(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
