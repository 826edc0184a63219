// SPDX-License-Identifier: EPL-2.0

package source

// State is the activation state of a Source.
type State int

const (
	// Idle: constructed, never started.
	Idle State = iota
	// Starting: producer activation in flight.
	Starting
	// Running: producer active, zero or more nodes attached.
	Running
	// Stopping: producer deactivation in flight.
	Stopping
	// Stopped: producer deactivated. Terminal.
	Stopped
	// Faulted: producer activation or deactivation failed. Terminal.
	Faulted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	case Faulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further activation is possible from s.
func (s State) Terminal() bool {
	return s == Stopped || s == Faulted
}
