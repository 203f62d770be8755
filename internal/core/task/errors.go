package task

import "errors"

// Task DAG integrity errors. These are always reported to the caller;
// the task remains in its prior state.
var (
	// ErrTaskNotFound indicates a task id (or prefix) matched nothing.
	ErrTaskNotFound = errors.New("task not found")

	// ErrParentNotFound indicates a fork referenced a parent task that
	// is absent from the metadata store.
	ErrParentNotFound = errors.New("parent task not found")

	// ErrSessionUnavailable indicates a resume was requested for a task
	// with no recorded agent session, or whose session no longer exists.
	ErrSessionUnavailable = errors.New("agent session unavailable")

	// ErrNotRunning indicates a cancel targeted a task that is not
	// currently executing in this process.
	ErrNotRunning = errors.New("task is not running")
)
