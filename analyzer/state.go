package analyzer

// ConnState represents the connection state of a Client.
type ConnState uint32

// Client connection states.
const (
	// DisconnectedState indicates that the client has no connection.
	DisconnectedState ConnState = iota
	// ConnectedState indicates that the client is connected and receiving frames.
	ConnectedState
)

// IsConnected returns if the state is connected.
func (cs ConnState) IsConnected() bool { return cs == ConnectedState }

// String returns string representation of the state.
func (cs ConnState) String() string {
	switch cs {
	case DisconnectedState:
		return "disconnected"
	case ConnectedState:
		return "connected"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (cs ConnState) MarshalText() ([]byte, error) {
	return []byte(cs.String()), nil
}
