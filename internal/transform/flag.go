package transform

import "sync/atomic"

// Flag is the process-wide "transform data" switch. The zero value is a
// disabled flag ready for use.
type Flag struct {
	enabled atomic.Bool
}

// NewFlag returns a flag holding initial.
func NewFlag(initial bool) *Flag {
	f := &Flag{}
	f.enabled.Store(initial)
	return f
}

// Set changes the flag. Setting the current value again is a no-op.
func (f *Flag) Set(enabled bool) {
	f.enabled.Store(enabled)
}

// Enabled reports whether transforms are applied.
func (f *Flag) Enabled() bool {
	return f.enabled.Load()
}
