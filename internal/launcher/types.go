package launcher

import (
	"time"

	"gamelaunch/internal/args"
)

// State is the lifecycle state of a launch task.
type State string

const (
	StateIdle     State = "idle"
	StateChecking State = "checking"
	StateStarting State = "starting"
	StateSuccess  State = "success"
	StateError    State = "error"
)

// Status pairs a state with human-readable text.
type Status struct {
	State   State
	Text    string
	Updated time.Time
}

// LaunchContext is the immutable per-invocation configuration.
type LaunchContext = args.Context
