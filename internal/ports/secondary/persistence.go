// Package secondary defines the driven ports: interfaces the
// application services consume, implemented by adapters.
package secondary

import (
	"context"
	"errors"

	"github.com/example/ctx/internal/models"
)

// ErrDanglingParent indicates an append whose parent id has never
// appeared in the ledger. The ledger rejects such entries to keep the
// DAG free of dangling edges.
var ErrDanglingParent = errors.New("parent id has no prior ledger entry")

// ErrNotFound is returned by point lookups that matched nothing.
var ErrNotFound = errors.New("record not found")

// ConceptRepository loads concept documents from external authoring.
type ConceptRepository interface {
	// Load returns a single concept by name.
	Load(ctx context.Context, name string) (*models.Concept, error)

	// LoadAll returns every concept in the store, keyed by name.
	LoadAll(ctx context.Context) (map[string]*models.Concept, error)
}

// Ledger is the append-only, crash-safe task DAG log. Append is the
// sole serialization point across concurrent task executions.
type Ledger interface {
	// Append durably writes one immutable record. Concurrent calls
	// serialize; a record either fully commits or does not appear.
	// Returns ErrDanglingParent if the entry names a parent id with no
	// prior entry.
	Append(ctx context.Context, entry models.LedgerEntry) error

	// ReadAll returns every entry in append order. Replaying them
	// reconstructs per-task status: the last entry for a task id wins.
	ReadAll(ctx context.Context) ([]models.LedgerEntry, error)

	// HasTask reports whether any entry exists for the task id.
	HasTask(ctx context.Context, taskID string) (bool, error)
}

// TaskRecord is the flat persistence shape for the per-task metadata
// projection. Timestamps are RFC3339 strings; empty means absent.
type TaskRecord struct {
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

// TaskRepository is the overwritable per-task metadata projection,
// separate from the append-only ledger, used for fast point lookups.
type TaskRepository interface {
	// Create persists the initial metadata record.
	Create(ctx context.Context, task *TaskRecord) error

	// GetByID retrieves a task by its exact id.
	GetByID(ctx context.Context, id string) (*TaskRecord, error)

	// GetByPrefix retrieves a task whose id uniquely matches a prefix.
	GetByPrefix(ctx context.Context, prefix string) (*TaskRecord, error)

	// List retrieves tasks matching the filters, newest first.
	List(ctx context.Context, filters TaskFilters) ([]*TaskRecord, error)

	// Exists reports whether a task id exists.
	Exists(ctx context.Context, id string) (bool, error)

	// UpdateStatus updates the status, optionally stamping completion.
	UpdateStatus(ctx context.Context, id, status string, setCompleted bool) error

	// SetSession records the agent session id for a task.
	SetSession(ctx context.Context, id, sessionID string) error

	// SetOutputPath records where the captured output payload lives.
	SetOutputPath(ctx context.Context, id, path string) error

	// CountByStatus returns task counts per status.
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// ReportRecord is the flat persistence shape for task reports.
type ReportRecord struct {
	TaskID      string
	Status      string
	Template    string
	Summary     string
	Artifacts   []string
	Issues      []string
	NextSteps   []string
	GeneratedAt string
}

// ReportRepository persists structured reports extracted at finalize.
type ReportRepository interface {
	// Save persists a report, replacing any prior report for the task.
	Save(ctx context.Context, report *ReportRecord) error

	// GetByTaskID retrieves the report for a task.
	GetByTaskID(ctx context.Context, taskID string) (*ReportRecord, error)
}
