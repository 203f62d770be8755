package models

// Task status constants.
const (
	TaskStatusPending   = "pending"
	TaskStatusRunning   = "running"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
)

// IsTerminal reports whether status is one of the terminal states.
func IsTerminal(status string) bool {
	return status == TaskStatusCompleted || status == TaskStatusFailed
}

// ValidStatus reports whether status is a known task status.
func ValidStatus(status string) bool {
	switch status {
	case TaskStatusPending, TaskStatusRunning, TaskStatusCompleted, TaskStatusFailed:
		return true
	}
	return false
}
