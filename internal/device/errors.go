package device

import "errors"

// Domain errors for the device package.
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a device ID or name is not cached.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrProfileNotFound is returned when a profile name or ID is not cached.
	ErrProfileNotFound = errors.New("device: profile not found")

	// ErrWatcherNotFound is returned when a provision watcher ID is not cached.
	ErrWatcherNotFound = errors.New("device: provision watcher not found")

	// ErrInvalidResource is returned when a resource lacks an ID or name.
	ErrInvalidResource = errors.New("device: resource requires id and name")
)
