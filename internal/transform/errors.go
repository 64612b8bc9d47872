package transform

import "errors"

var (
	// ErrInvalidModifier is returned when base, scale or offset is not a number.
	ErrInvalidModifier = errors.New("transform: invalid numeric modifier")

	// ErrNotFinite is returned when a transform produces NaN or ±Inf.
	ErrNotFinite = errors.New("transform: result is not finite")
)
