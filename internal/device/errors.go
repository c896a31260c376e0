package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrLightNotFound) {
//	    // handle not found case
//	}
var (
	// ErrLightNotFound is returned when a light name is not registered.
	ErrLightNotFound = errors.New("device: light not found")

	// ErrLightExists is returned when adding a light whose name is taken.
	ErrLightExists = errors.New("device: light already exists")

	// ErrInvalidLight is returned when a light configuration is rejected.
	ErrInvalidLight = errors.New("device: invalid light")

	// ErrLightNameRequired is returned by history operations without a light name.
	ErrLightNameRequired = errors.New("device: light name is required")

	// ErrInvalidRetention is returned when pruning with a non-positive age.
	ErrInvalidRetention = errors.New("device: retention must be positive")
)
