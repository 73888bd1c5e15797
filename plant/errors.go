package plant

import "errors"

var (
	// ErrConnConfigNil indicates that a nil Config was provided.
	ErrConnConfigNil = errors.New("plant config is nil")

	// ErrEngineNil indicates that a nil process engine was provided.
	ErrEngineNil = errors.New("process engine is nil")

	// ErrNotListening indicates Serve was called before Listen.
	ErrNotListening = errors.New("server is not listening")

	// ErrServerClosed is returned by Serve after Close.
	ErrServerClosed = errors.New("server closed")

	// ErrConnection marks a session-level connection failure: write error, zero-byte write, or a
	// connection closed or reset by the peer.
	ErrConnection = errors.New("connection error")
)
