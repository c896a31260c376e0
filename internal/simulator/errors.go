package simulator

import "errors"

// Domain-specific errors for the simulator.
var (
	// ErrInvalidCommand is returned when a command payload is not a JSON object.
	ErrInvalidCommand = errors.New("simulator: invalid command")

	// ErrUnknownLight is returned when a configured simulator light does not exist.
	ErrUnknownLight = errors.New("simulator: unknown light")

	// ErrNoStateTopic is returned when a simulated light has nowhere to report state.
	ErrNoStateTopic = errors.New("simulator: light has no state topic")

	// ErrNoLights is returned when there is nothing to simulate.
	ErrNoLights = errors.New("simulator: no lights to simulate")
)
