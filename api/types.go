// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Lifecycle states shared by handles, clients and servers.

package api

// HandleState tracks the close handshake of one handle.
type HandleState int32

const (
	HandleOpen HandleState = iota
	HandleLocalClosing
	HandleClosed
)

func (s HandleState) String() string {
	switch s {
	case HandleOpen:
		return "open"
	case HandleLocalClosing:
		return "local-closing"
	case HandleClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// LoopState is the lifecycle of an object owning a background loop
// (a client receive loop or a server accept loop).
type LoopState int32

const (
	StateIdle LoopState = iota
	StateRunning
	StateClosed
)

func (s LoopState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
