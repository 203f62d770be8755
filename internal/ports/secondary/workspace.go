package secondary

// TaskWorkspace stores per-task payload files (prompt, captured output,
// diagnostics). Each task owns only its own directory, so no cross-task
// locking is needed.
type TaskWorkspace interface {
	// WritePrompt stores the full prompt sent to the agent.
	WritePrompt(taskID, prompt string) error

	// WriteOutput stores whatever output was captured, even on failure.
	WriteOutput(taskID, output string) (path string, err error)

	// WriteDiagnostic stores error/diagnostic text.
	WriteDiagnostic(taskID, text string) error

	// ReadOutput returns the captured output payload.
	ReadOutput(taskID string) (string, error)

	// Dir returns the task's directory path.
	Dir(taskID string) string
}
