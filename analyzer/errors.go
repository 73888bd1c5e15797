package analyzer

import "errors"

var (
	// ErrConnConfigNil indicates that a nil Config was provided.
	ErrConnConfigNil = errors.New("analyzer config is nil")

	// ErrNotConnected indicates an operation that needs a connection while the client is disconnected.
	ErrNotConnected = errors.New("not connected")

	// ErrConnection marks a socket failure that disconnected the client.
	ErrConnection = errors.New("connection error")
)
