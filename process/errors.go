package process

import "errors"

var (
	// ErrUnknownTarget indicates a variable, sensor or actuator name that the plant doesn't have.
	ErrUnknownTarget = errors.New("unknown target")

	// ErrInvalidCommand indicates a command payload without exactly one recognized command key,
	// or with missing or mistyped fields.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrIncompleteSample indicates a sample with a missing variable or an absent value.
	ErrIncompleteSample = errors.New("incomplete sample")
)
