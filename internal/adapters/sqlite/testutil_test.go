// Package sqlite_test contains integration tests for SQLite
// repositories. All test setup goes through db.GetSchemaSQL() so tests
// run against the authoritative schema; do not hardcode CREATE TABLE
// statements in test files.
package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/ctx/internal/adapters/sqlite"
	"github.com/example/ctx/internal/db"
	"github.com/example/ctx/internal/models"
	"github.com/example/ctx/internal/ports/secondary"
)

// setupTestDB creates an in-memory database with the authoritative
// schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if _, err := testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedTask inserts a test task and returns its id.
func seedTask(t *testing.T, database *sql.DB, id, parentID, status string) string {
	t.Helper()
	if id == "" {
		id = "aaaa0001"
	}
	if status == "" {
		status = models.TaskStatusPending
	}

	repo := sqlite.NewTaskRepository(database)
	record := &secondary.TaskRecord{
		ID:          id,
		ParentID:    parentID,
		Description: "test task " + id,
		Concepts:    []string{"core"},
		Status:      status,
	}
	if err := repo.Create(context.Background(), record); err != nil {
		t.Fatalf("failed to seed task: %v", err)
	}
	return id
}
