package filesystem

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/example/ctx/internal/ports/secondary"
)

// Per-task payload file names.
const (
	promptFileName     = "prompt.txt"
	outputFileName     = "output.txt"
	diagnosticFileName = "error.txt"
)

// Workspace stores per-task payload files under <root>/<task-id>/.
type Workspace struct {
	root string
}

// NewWorkspace creates a workspace rooted at the given directory.
func NewWorkspace(root string) *Workspace {
	return &Workspace{root: root}
}

// Dir returns the task's directory path.
func (w *Workspace) Dir(taskID string) string {
	return filepath.Join(w.root, taskID)
}

// WritePrompt stores the full prompt sent to the agent.
func (w *Workspace) WritePrompt(taskID, prompt string) error {
	return w.write(taskID, promptFileName, prompt)
}

// WriteOutput stores whatever output was captured, even on failure, and
// returns the payload path.
func (w *Workspace) WriteOutput(taskID, output string) (string, error) {
	if err := w.write(taskID, outputFileName, output); err != nil {
		return "", err
	}
	return filepath.Join(w.Dir(taskID), outputFileName), nil
}

// WriteDiagnostic stores error/diagnostic text.
func (w *Workspace) WriteDiagnostic(taskID, text string) error {
	return w.write(taskID, diagnosticFileName, text)
}

// ReadOutput returns the captured output payload.
func (w *Workspace) ReadOutput(taskID string) (string, error) {
	data, err := os.ReadFile(filepath.Join(w.Dir(taskID), outputFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no output captured for task %s: %w", taskID, secondary.ErrNotFound)
		}
		return "", fmt.Errorf("failed to read task output: %w", err)
	}
	return string(data), nil
}

func (w *Workspace) write(taskID, name, content string) error {
	dir := w.Dir(taskID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create task dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// Ensure Workspace implements the interface
var _ secondary.TaskWorkspace = (*Workspace)(nil)
