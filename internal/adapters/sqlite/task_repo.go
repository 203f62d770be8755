// Package sqlite contains SQLite implementations of repository
// interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/ctx/internal/ports/secondary"
)

// TaskRepository implements secondary.TaskRepository with SQLite.
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new SQLite task repository.
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskSelectCols = "id, parent_id, session_id, description, concepts, status, output_path, created_at, completed_at"

// scanTask scans a task row into a TaskRecord.
func scanTask(scanner interface {
	Scan(dest ...any) error
}) (*secondary.TaskRecord, error) {
	var (
		parentID    sql.NullString
		sessionID   sql.NullString
		conceptsRaw string
		outputPath  sql.NullString
		createdAt   time.Time
		completedAt sql.NullTime
	)

	record := &secondary.TaskRecord{}
	err := scanner.Scan(
		&record.ID, &parentID, &sessionID, &record.Description,
		&conceptsRaw, &record.Status, &outputPath, &createdAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	record.ParentID = parentID.String
	record.SessionID = sessionID.String
	record.OutputPath = outputPath.String
	record.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	if completedAt.Valid {
		record.CompletedAt = completedAt.Time.UTC().Format(time.RFC3339)
	}

	if err := json.Unmarshal([]byte(conceptsRaw), &record.Concepts); err != nil {
		return nil, fmt.Errorf("failed to decode concepts for task %s: %w", record.ID, err)
	}

	return record, nil
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Create persists the initial metadata record.
func (r *TaskRepository) Create(ctx context.Context, task *secondary.TaskRecord) error {
	concepts := task.Concepts
	if concepts == nil {
		concepts = []string{}
	}
	conceptsRaw, err := json.Marshal(concepts)
	if err != nil {
		return fmt.Errorf("failed to encode concepts: %w", err)
	}

	createdAt := task.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(time.RFC3339)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO tasks (id, parent_id, session_id, description, concepts, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		task.ID, nullable(task.ParentID), nullable(task.SessionID),
		task.Description, string(conceptsRaw), task.Status, createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetByID retrieves a task by its exact id.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*secondary.TaskRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+taskSelectCols+" FROM tasks WHERE id = ?", id)

	record, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return record, nil
}

// GetByPrefix retrieves a task whose id uniquely matches a prefix.
// An exact match always wins over prefix matches.
func (r *TaskRepository) GetByPrefix(ctx context.Context, prefix string) (*secondary.TaskRecord, error) {
	if record, err := r.GetByID(ctx, prefix); err == nil {
		return record, nil
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+taskSelectCols+" FROM tasks WHERE id LIKE ? || '%' LIMIT 2", prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to look up task by prefix: %w", err)
	}
	defer rows.Close()

	var matches []*secondary.TaskRecord
	for rows.Next() {
		record, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		matches = append(matches, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to look up task by prefix: %w", err)
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return nil, fmt.Errorf("task %s: %w", prefix, secondary.ErrNotFound)
	default:
		return nil, fmt.Errorf("task prefix %s is ambiguous", prefix)
	}
}

// List retrieves tasks matching the filters, newest first.
func (r *TaskRepository) List(ctx context.Context, filters secondary.TaskFilters) ([]*secondary.TaskRecord, error) {
	query := "SELECT " + taskSelectCols + " FROM tasks WHERE 1=1"
	args := []any{}

	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}
	if filters.ParentID != "" {
		query += " AND parent_id = ?"
		args = append(args, filters.ParentID)
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*secondary.TaskRecord
	for rows.Next() {
		record, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

// Exists reports whether a task id exists.
func (r *TaskRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check task existence: %w", err)
	}
	return count > 0, nil
}

// UpdateStatus updates the status, optionally stamping completion.
func (r *TaskRepository) UpdateStatus(ctx context.Context, id, status string, setCompleted bool) error {
	query := "UPDATE tasks SET status = ?"
	args := []any{status}

	if setCompleted {
		query += ", completed_at = ?"
		args = append(args, time.Now().UTC().Format(time.RFC3339))
	}

	query += " WHERE id = ?"
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("task %s: %w", id, secondary.ErrNotFound)
	}

	return nil
}

// SetSession records the agent session id for a task.
func (r *TaskRepository) SetSession(ctx context.Context, id, sessionID string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE tasks SET session_id = ? WHERE id = ?", nullable(sessionID), id)
	if err != nil {
		return fmt.Errorf("failed to set task session: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("task %s: %w", id, secondary.ErrNotFound)
	}

	return nil
}

// SetOutputPath records where the captured output payload lives.
func (r *TaskRepository) SetOutputPath(ctx context.Context, id, path string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE tasks SET output_path = ? WHERE id = ?", nullable(path), id)
	if err != nil {
		return fmt.Errorf("failed to set task output path: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("task %s: %w", id, secondary.ErrNotFound)
	}

	return nil
}

// CountByStatus returns task counts per status.
func (r *TaskRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM tasks GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	return counts, nil
}

// Ensure TaskRepository implements the interface
var _ secondary.TaskRepository = (*TaskRepository)(nil)
