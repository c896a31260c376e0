package console

import "errors"

// Domain-specific errors for console command parsing.
var (
	// ErrEmptyCommand is returned for a blank line.
	ErrEmptyCommand = errors.New("console: empty command")

	// ErrUnknownCommand is returned for an unrecognised verb.
	ErrUnknownCommand = errors.New("console: unknown command")

	// ErrUsage is returned when a command has the wrong number of arguments.
	ErrUsage = errors.New("console: wrong usage")

	// ErrInvalidArgument is returned for a malformed or out-of-range option.
	ErrInvalidArgument = errors.New("console: invalid argument")
)
