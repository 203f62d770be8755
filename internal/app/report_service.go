package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	coretask "github.com/example/ctx/internal/core/task"
	"github.com/example/ctx/internal/ports/primary"
	"github.com/example/ctx/internal/ports/secondary"
	"github.com/example/ctx/internal/templates"
)

// ReportServiceImpl implements the ReportService interface.
type ReportServiceImpl struct {
	reportRepo secondary.ReportRepository
	taskRepo   secondary.TaskRepository
}

// NewReportService creates a new ReportService with injected dependencies.
func NewReportService(reportRepo secondary.ReportRepository, taskRepo secondary.TaskRepository) *ReportServiceImpl {
	return &ReportServiceImpl{reportRepo: reportRepo, taskRepo: taskRepo}
}

// GetReport retrieves the structured report for a task. The task id may
// be a unique prefix.
func (s *ReportServiceImpl) GetReport(ctx context.Context, taskID string) (*primary.Report, error) {
	rec, err := s.lookup(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return &primary.Report{
		TaskID:      rec.TaskID,
		Status:      rec.Status,
		Template:    rec.Template,
		Summary:     rec.Summary,
		Artifacts:   rec.Artifacts,
		Issues:      rec.Issues,
		NextSteps:   rec.NextSteps,
		GeneratedAt: rec.GeneratedAt,
	}, nil
}

// RenderReport renders a task's stored report through the template it
// was recorded against.
func (s *ReportServiceImpl) RenderReport(ctx context.Context, taskID string) (string, error) {
	rec, err := s.lookup(ctx, taskID)
	if err != nil {
		return "", err
	}

	vars := map[string]string{
		"task_id":    rec.TaskID,
		"summary":    rec.Summary,
		"artifacts":  renderList(rec.Artifacts),
		"issues":     renderList(rec.Issues),
		"next_steps": renderList(rec.NextSteps),
	}
	return templates.Render(rec.Template, vars)
}

// ListTemplates returns the declared template names.
func (s *ReportServiceImpl) ListTemplates(ctx context.Context) ([]string, error) {
	return templates.Names(), nil
}

// lookup resolves a task id or prefix to its stored report.
func (s *ReportServiceImpl) lookup(ctx context.Context, taskID string) (*secondary.ReportRecord, error) {
	task, err := s.taskRepo.GetByPrefix(ctx, taskID)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", taskID, coretask.ErrTaskNotFound)
	}
	if err != nil {
		return nil, err
	}

	rec, err := s.reportRepo.GetByTaskID(ctx, task.ID)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, fmt.Errorf("task %s has no report: %w", task.ID, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// renderList formats a string slice as markdown bullet lines, or "none"
// when empty, matching the shape agents are instructed to emit.
func renderList(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}

// Ensure ReportServiceImpl implements the interface
var _ primary.ReportService = (*ReportServiceImpl)(nil)
