package common

import "errors"

var (
	// ErrBusy is returned when an operation is started while the same
	// operation is still in flight.
	ErrBusy = errors.New("operation already in progress")

	// ErrInvalidInput marks locally rejected form input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedProvider is returned for OAuth providers the service does not offer.
	ErrUnsupportedProvider = errors.New("unsupported oauth provider")
)
