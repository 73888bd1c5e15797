package plant

import (
	"sync"
	"sync/atomic"
)

// State represents the stage of the plant serve loop.
type State uint32

// Plant server states.
const (
	// IdleState indicates that Listen has not been called yet.
	IdleState State = iota
	// ListeningState indicates that the listen socket is bound.
	ListeningState
	// AwaitingClientState indicates that the server is waiting for a client to connect.
	AwaitingClientState
	// ServingState indicates that a client session is active.
	ServingState
	// StoppedState indicates that the serve loop has exited.
	StoppedState
)

// String returns string representation of the state.
func (s State) String() string {
	switch s {
	case IdleState:
		return "idle"
	case ListeningState:
		return "listening"
	case AwaitingClientState:
		return "awaiting-client"
	case ServingState:
		return "serving"
	case StoppedState:
		return "stopped"
	default:
		return "unknown"
	}
}

// StateChangeHandler is invoked when the server state changes.
//
// Note: the handler is invoked in a blocking mode from the serve loop. Take care with long-running
// implementations.
type StateChangeHandler func(prevState State, newState State)

type stateMgr struct {
	mu       sync.Mutex
	state    atomic.Uint32
	handlers []StateChangeHandler
}

func (sm *stateMgr) State() State {
	return State(sm.state.Load())
}

func (sm *stateMgr) AddHandler(handlers ...StateChangeHandler) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.handlers = append(sm.handlers, handlers...)
}

// to switches to newState and invokes the handlers. It is a no-op when the state is unchanged.
func (sm *stateMgr) to(newState State) {
	prevState := State(sm.state.Swap(uint32(newState)))
	if prevState == newState {
		return
	}

	sm.mu.Lock()
	handlers := sm.handlers
	sm.mu.Unlock()

	for _, h := range handlers {
		h(prevState, newState)
	}
}
