package frame

import (
	"errors"
	"fmt"
)

var (
	// ErrFrameTooShort indicates fewer bytes than the header plus the length field.
	ErrFrameTooShort = errors.New("frame too short")

	// ErrLengthMismatch indicates that the declared payload length differs from the payload size.
	ErrLengthMismatch = errors.New("payload length mismatch")

	// ErrPayloadDecode indicates a payload that is not a valid JSON sample or command.
	ErrPayloadDecode = errors.New("payload decode error")

	// ErrPayloadTooLarge indicates a payload that doesn't fit the 16-bit length field.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrHeaderMismatch indicates stream bytes that do not start with Header.
	ErrHeaderMismatch = errors.New("frame header mismatch")
)

// SyncError is returned by Reader after it dropped bytes to find the next Header.
type SyncError struct {
	Discarded int
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("%s: %d bytes discarded", ErrHeaderMismatch, e.Discarded)
}

func (e *SyncError) Unwrap() error { return ErrHeaderMismatch }
