package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/ctx/internal/ports/secondary"
)

// ReportRepository implements secondary.ReportRepository with SQLite.
type ReportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new SQLite report repository.
func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Save persists a report, replacing any prior report for the task.
func (r *ReportRepository) Save(ctx context.Context, report *secondary.ReportRecord) error {
	artifacts, err := encodeList(report.Artifacts)
	if err != nil {
		return fmt.Errorf("failed to encode artifacts: %w", err)
	}
	issues, err := encodeList(report.Issues)
	if err != nil {
		return fmt.Errorf("failed to encode issues: %w", err)
	}
	nextSteps, err := encodeList(report.NextSteps)
	if err != nil {
		return fmt.Errorf("failed to encode next steps: %w", err)
	}

	generatedAt := report.GeneratedAt
	if generatedAt == "" {
		generatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO reports (task_id, status, template, summary, artifacts, issues, next_steps, generated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(task_id) DO UPDATE SET
		 status = excluded.status, template = excluded.template,
		 summary = excluded.summary, artifacts = excluded.artifacts,
		 issues = excluded.issues, next_steps = excluded.next_steps,
		 generated_at = excluded.generated_at`,
		report.TaskID, report.Status, report.Template, report.Summary,
		artifacts, issues, nextSteps, generatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	return nil
}

// GetByTaskID retrieves the report for a task.
func (r *ReportRepository) GetByTaskID(ctx context.Context, taskID string) (*secondary.ReportRecord, error) {
	var (
		record      secondary.ReportRecord
		artifacts   string
		issues      string
		nextSteps   string
		generatedAt time.Time
	)

	err := r.db.QueryRowContext(ctx,
		"SELECT task_id, status, template, summary, artifacts, issues, next_steps, generated_at FROM reports WHERE task_id = ?",
		taskID,
	).Scan(&record.TaskID, &record.Status, &record.Template, &record.Summary,
		&artifacts, &issues, &nextSteps, &generatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("report for task %s: %w", taskID, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	record.GeneratedAt = generatedAt.UTC().Format(time.RFC3339)
	if err := json.Unmarshal([]byte(artifacts), &record.Artifacts); err != nil {
		return nil, fmt.Errorf("failed to decode artifacts for task %s: %w", taskID, err)
	}
	if err := json.Unmarshal([]byte(issues), &record.Issues); err != nil {
		return nil, fmt.Errorf("failed to decode issues for task %s: %w", taskID, err)
	}
	if err := json.Unmarshal([]byte(nextSteps), &record.NextSteps); err != nil {
		return nil, fmt.Errorf("failed to decode next steps for task %s: %w", taskID, err)
	}

	return &record, nil
}

// Ensure ReportRepository implements the interface
var _ secondary.ReportRepository = (*ReportRepository)(nil)
