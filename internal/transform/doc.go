// Package transform holds the reading transform switch and the arithmetic it
// enables.
//
// A Flag is created once in main with the configured initial value and
// injected into the HTTP API (which sets it) and the readings ingest (which
// reads it). There is no package-level state.
//
// When enabled, a raw reading is converted with the resource's property
// value modifiers in this order:
//
//	value = base ^ value      (if base is set)
//	value = value * scale     (if scale is set)
//	value = value + offset    (if offset is set)
package transform
