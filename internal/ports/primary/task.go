package primary

import "context"

// TaskService defines the primary port for task orchestration.
type TaskService interface {
	// StartTask creates a root task and launches the agent. In
	// background mode it returns as soon as the task is running; in
	// foreground mode it blocks until a terminal status.
	StartTask(ctx context.Context, req StartTaskRequest) (*StartTaskResponse, error)

	// ForkTask creates a child task inheriting the parent's resolved
	// concept set unioned with any additional concepts.
	ForkTask(ctx context.Context, req ForkTaskRequest) (*StartTaskResponse, error)

	// ResumeTask continues a task's recorded agent session.
	ResumeTask(ctx context.Context, req ResumeTaskRequest) (*StartTaskResponse, error)

	// GetTask retrieves a task by id or unique id prefix.
	GetTask(ctx context.Context, idOrPrefix string) (*Task, error)

	// ListTasks lists tasks, newest first, with optional filters.
	ListTasks(ctx context.Context, filters TaskFilters) ([]*Task, error)

	// WaitTask blocks until the task reaches a terminal status, then
	// returns it. Waiting on a task that is not executing in this
	// process returns its stored state immediately.
	WaitTask(ctx context.Context, taskID string) (*Task, error)

	// CancelTask terminates a running task's agent process. The task is
	// finalized as failed, never left permanently running.
	CancelTask(ctx context.Context, taskID string) error

	// TaskOutput returns the captured output payload of a task.
	TaskOutput(ctx context.Context, idOrPrefix string) (string, error)

	// LedgerEntries returns the full ledger history, oldest first.
	LedgerEntries(ctx context.Context) ([]LedgerEntry, error)

	// Stats returns task counts per status.
	Stats(ctx context.Context) (map[string]int, error)
}

// StartTaskRequest contains parameters for starting a root task.
type StartTaskRequest struct {
	Description    string
	Concepts       []string
	Context        string // free-form context handed down by the caller
	Background     bool
	ReportTemplate string // empty selects the default template
	AllowMissing   bool   // proceed when requested concepts are unknown
}

// ForkTaskRequest contains parameters for forking a task.
type ForkTaskRequest struct {
	ParentID           string
	Description        string
	AdditionalConcepts []string
	Context            string
	Background         bool
	ReportTemplate     string
}

// ResumeTaskRequest contains parameters for resuming a task.
type ResumeTaskRequest struct {
	TaskID     string
	Prompt     string // empty derives a continuation prompt
	Background bool
}

// StartTaskResponse contains the result of a launch.
type StartTaskResponse struct {
	TaskID string
	Task   *Task
}

// Task is the caller-facing task view.
type Task struct {
	ID          string
	ParentID    string
	SessionID   string
	Description string
	Concepts    []string
	Status      string
	OutputPath  string
	CreatedAt   string
	CompletedAt string
}

// TaskFilters narrows task listings.
type TaskFilters struct {
	Status   string
	ParentID string
	Limit    int
}

// LedgerEntry is the caller-facing view of one ledger record.
type LedgerEntry struct {
	TaskID      string
	ParentID    string
	Timestamp   string
	Description string
	Status      string
}
