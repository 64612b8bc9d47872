package callback

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedNotification is reported when a notification lacks a
	// type, an id, or the request lacks a verb.
	ErrMalformedNotification = errors.New("callback: malformed notification")

	// ErrResourceNotFound matches every *NotFoundError.
	ErrResourceNotFound = errors.New("callback: resource not found")
)

// NotFoundError reports that a handler did not recognise a resource id.
type NotFoundError struct {
	Kind ResourceKind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("callback: %s %q not found", e.Kind.Label(), e.ID)
}

// Is lets errors.Is(err, ErrResourceNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrResourceNotFound
}
