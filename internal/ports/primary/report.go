package primary

import "context"

// ReportService defines the primary port for reading task reports.
type ReportService interface {
	// GetReport retrieves the structured report for a task.
	GetReport(ctx context.Context, taskID string) (*Report, error)

	// RenderReport renders a task's report through its template.
	RenderReport(ctx context.Context, taskID string) (string, error)

	// ListTemplates returns the declared template names.
	ListTemplates(ctx context.Context) ([]string, error)
}

// Report is the caller-facing report view.
type Report struct {
	TaskID      string
	Status      string
	Template    string
	Summary     string
	Artifacts   []string
	Issues      []string
	NextSteps   []string
	GeneratedAt string
}
