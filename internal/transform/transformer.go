package transform

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nerrad567/gray-logic-device/internal/metadata"
)

// Transformer applies property value modifiers to raw readings while its
// Flag is enabled.
type Transformer struct {
	flag *Flag
}

// NewTransformer creates a transformer gated by flag. A nil flag never
// transforms.
func NewTransformer(flag *Flag) *Transformer {
	return &Transformer{flag: flag}
}

// Apply converts a raw value using pv's base, scale and offset. With the flag
// disabled the value is returned unchanged.
//
// Parameters:
//   - value: Raw reading as received from the device
//   - pv: Property value of the resource the reading belongs to
//
// Returns:
//   - float64: The transformed value
//   - error: ErrInvalidModifier or ErrNotFinite
func (t *Transformer) Apply(value float64, pv metadata.PropertyValue) (float64, error) {
	if t.flag == nil || !t.flag.Enabled() {
		return value, nil
	}

	base, ok, err := parseModifier("base", pv.Base)
	if err != nil {
		return 0, err
	}
	if ok && base != 0 {
		value = math.Pow(base, value)
	}

	scale, ok, err := parseModifier("scale", pv.Scale)
	if err != nil {
		return 0, err
	}
	if ok {
		value *= scale
	}

	offset, ok, err := parseModifier("offset", pv.Offset)
	if err != nil {
		return 0, err
	}
	if ok {
		value += offset
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, ErrNotFinite
	}
	return value, nil
}

// parseModifier parses an optional decimal modifier; ok is false when unset.
func parseModifier(name, raw string) (v float64, ok bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s %q", ErrInvalidModifier, name, raw)
	}
	return v, true, nil
}
