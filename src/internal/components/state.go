package components

import "fmt"

// State is a step in the HTTP server lifecycle:
//
//	Idle -> Starting -> Running -> Stopping -> Stopped
//
// A failed bind goes from Starting straight to Stopped. Stopped is terminal.
type State int32

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}
