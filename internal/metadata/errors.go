package metadata

import "errors"

var (
	// ErrNotFound is returned when the registry answers 404.
	ErrNotFound = errors.New("metadata: resource not found")

	// ErrUnexpectedStatus is returned for any other non-2xx answer.
	ErrUnexpectedStatus = errors.New("metadata: unexpected response status")

	// ErrInvalidID is returned when an empty id or name is requested.
	ErrInvalidID = errors.New("metadata: id must not be empty")
)
