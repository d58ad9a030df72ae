package launcher

import "errors"

// alreadyRunningError signals a launch request for a task that is not idle.
type alreadyRunningError struct{ id string }

func (e alreadyRunningError) Error() string { return "launch already in progress: " + e.id }

// ErrAlreadyRunning returns the error for a rejected launch of id.
func ErrAlreadyRunning(id string) error { return alreadyRunningError{id: id} }

// IsAlreadyRunning reports whether err indicates a rejected re-entrant launch.
func IsAlreadyRunning(err error) bool {
	var ae alreadyRunningError
	return errors.As(err, &ae)
}

// spawnError signals that the game process could not be started.
type spawnError struct{ err error }

func (e spawnError) Error() string { return "start game process: " + e.err.Error() }

func (e spawnError) Unwrap() error { return e.err }

// IsSpawnFailure reports whether err indicates a process spawn failure.
func IsSpawnFailure(err error) bool {
	var se spawnError
	return errors.As(err, &se)
}

// taskNotFoundError signals an unknown task id.
type taskNotFoundError struct{ id string }

func (e taskNotFoundError) Error() string { return "task not found: " + e.id }

// ErrTaskNotFound returns an error for an unknown task id.
func ErrTaskNotFound(id string) error { return taskNotFoundError{id: id} }

// IsTaskNotFound reports whether err indicates an unknown task id.
func IsTaskNotFound(err error) bool {
	var te taskNotFoundError
	return errors.As(err, &te)
}
