package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/example/ctx/internal/core/concept"
	coretask "github.com/example/ctx/internal/core/task"
	"github.com/example/ctx/internal/models"
	"github.com/example/ctx/internal/ports/primary"
	"github.com/example/ctx/internal/ports/secondary"
	"github.com/example/ctx/internal/templates"
)

// taskServiceFixture bundles a service with its mocks.
type taskServiceFixture struct {
	service     *TaskServiceImpl
	conceptRepo *mockConceptRepository
	taskRepo    *mockTaskRepository
	reportRepo  *mockReportRepository
	ledger      *mockLedger
	workspace   *mockWorkspace
	runner      *mockRunner
}

func newTaskServiceFixture() *taskServiceFixture {
	f := &taskServiceFixture{
		conceptRepo: newMockConceptRepository(),
		taskRepo:    newMockTaskRepository(),
		reportRepo:  newMockReportRepository(),
		ledger:      newMockLedger(),
		workspace:   newMockWorkspace(),
		runner:      newMockRunner(),
	}
	f.conceptRepo.add("core", nil)
	f.conceptRepo.add("auth", []string{"core"})
	f.service = NewTaskService(
		f.conceptRepo, f.taskRepo, f.reportRepo, f.ledger,
		f.workspace, f.runner, "", "")
	return f
}

func TestStartTaskForegroundCompletes(t *testing.T) {
	f := newTaskServiceFixture()
	f.runner.result = &secondary.AgentResult{
		Output: reportOutput("implemented the auth flow"),
		ExitOK: true,
	}

	resp, err := f.service.StartTask(context.Background(), primary.StartTaskRequest{
		Description: "build auth",
		Concepts:    []string{"auth"},
	})
	if err != nil {
		t.Fatalf("StartTask() error = %v", err)
	}
	if resp.Task.Status != models.TaskStatusCompleted {
		t.Errorf("status = %q, want %q", resp.Task.Status, models.TaskStatusCompleted)
	}
	if resp.Task.CompletedAt == "" {
		t.Error("expected completion timestamp")
	}
	if resp.Task.SessionID == "" {
		t.Error("expected session id after a successful run")
	}

	// Dependency order: core before auth.
	wantConcepts := []string{"core", "auth"}
	if len(resp.Task.Concepts) != 2 || resp.Task.Concepts[0] != wantConcepts[0] || resp.Task.Concepts[1] != wantConcepts[1] {
		t.Errorf("concepts = %v, want %v", resp.Task.Concepts, wantConcepts)
	}

	statuses := f.ledger.forTask(resp.TaskID)
	want := []string{models.TaskStatusPending, models.TaskStatusRunning, models.TaskStatusCompleted}
	if len(statuses) != len(want) {
		t.Fatalf("ledger statuses = %v, want %v", statuses, want)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("ledger status[%d] = %q, want %q", i, statuses[i], want[i])
		}
	}

	rep := f.reportRepo.get(resp.TaskID)
	if rep == nil {
		t.Fatal("expected a stored report")
	}
	if rep.Summary != "implemented the auth flow" {
		t.Errorf("report summary = %q", rep.Summary)
	}

	prompt := f.workspace.prompt(resp.TaskID)
	if !strings.Contains(prompt, "## Concept: core") || !strings.Contains(prompt, "## Concept: auth") {
		t.Error("prompt missing concept payload")
	}
	if strings.Index(prompt, "## Concept: core") > strings.Index(prompt, "## Concept: auth") {
		t.Error("prompt concepts out of dependency order")
	}
	if !strings.Contains(prompt, "### BEGIN REPORT") {
		t.Error("prompt missing report instruction")
	}
}

func TestStartTaskUnknownConceptAborts(t *testing.T) {
	f := newTaskServiceFixture()

	_, err := f.service.StartTask(context.Background(), primary.StartTaskRequest{
		Description: "bad",
		Concepts:    []string{"ghost"},
	})

	var unknown *concept.UnknownConceptError
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v, want UnknownConceptError", err)
	}
	if len(f.taskRepo.sortedIDs()) != 0 {
		t.Error("no task metadata should exist after an aborted launch")
	}
	if len(f.ledger.all()) != 0 {
		t.Error("no ledger entry should exist after an aborted launch")
	}
}

func TestStartTaskAllowMissingProceeds(t *testing.T) {
	f := newTaskServiceFixture()
	f.runner.result = &secondary.AgentResult{Output: reportOutput("ok"), ExitOK: true}

	resp, err := f.service.StartTask(context.Background(), primary.StartTaskRequest{
		Description:  "tolerant",
		Concepts:     []string{"auth", "ghost"},
		AllowMissing: true,
	})
	if err != nil {
		t.Fatalf("StartTask() error = %v", err)
	}
	if resp.Task.Status != models.TaskStatusCompleted {
		t.Errorf("status = %q, want completed", resp.Task.Status)
	}
	for _, name := range resp.Task.Concepts {
		if name == "ghost" {
			t.Error("missing concept should not appear in the resolved set")
		}
	}
}

func TestStartTaskUnknownTemplateAborts(t *testing.T) {
	f := newTaskServiceFixture()

	_, err := f.service.StartTask(context.Background(), primary.StartTaskRequest{
		Description:    "bad template",
		ReportTemplate: "nonexistent",
	})

	var unknown *templates.ErrUnknownTemplate
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v, want ErrUnknownTemplate", err)
	}
	if len(f.ledger.all()) != 0 {
		t.Error("no ledger entry should exist after a template failure")
	}
}

func TestStartTaskSpawnFailureMarksFailed(t *testing.T) {
	f := newTaskServiceFixture()
	f.runner.err = errors.New("failed to start agent process: executable not found")
	f.runner.result = nil

	resp, err := f.service.StartTask(context.Background(), primary.StartTaskRequest{
		Description: "doomed",
	})
	if err != nil {
		t.Fatalf("StartTask() error = %v", err)
	}
	if resp.Task.Status != models.TaskStatusFailed {
		t.Errorf("status = %q, want failed", resp.Task.Status)
	}
	if resp.Task.SessionID != "" {
		t.Errorf("session id = %q, want empty after spawn failure", resp.Task.SessionID)
	}
	if len(f.workspace.diagnosticsFor(resp.TaskID)) == 0 {
		t.Error("expected a diagnostic record for the spawn failure")
	}

	statuses := f.ledger.forTask(resp.TaskID)
	if statuses[len(statuses)-1] != models.TaskStatusFailed {
		t.Errorf("last ledger status = %q, want failed", statuses[len(statuses)-1])
	}
}

func TestStartTaskNonZeroExitFails(t *testing.T) {
	f := newTaskServiceFixture()
	f.runner.result = &secondary.AgentResult{
		Output: reportOutput("claims success"),
		Stderr: "panic in agent",
		ExitOK: false,
	}

	resp, err := f.service.StartTask(context.Background(), primary.StartTaskRequest{
		Description: "crashy",
	})
	if err != nil {
		t.Fatalf("StartTask() error = %v", err)
	}
	if resp.Task.Status != models.TaskStatusFailed {
		t.Errorf("status = %q, want failed despite well-formed report", resp.Task.Status)
	}
	if len(f.workspace.diagnosticsFor(resp.TaskID)) == 0 {
		t.Error("stderr should be recorded as a diagnostic")
	}
}

func TestStartTaskMissingReportFails(t *testing.T) {
	f := newTaskServiceFixture()
	f.runner.result = &secondary.AgentResult{
		Output: "did a bunch of work but never emitted the block",
		ExitOK: true,
	}

	resp, err := f.service.StartTask(context.Background(), primary.StartTaskRequest{
		Description: "silent",
	})
	if err != nil {
		t.Fatalf("StartTask() error = %v", err)
	}
	if resp.Task.Status != models.TaskStatusFailed {
		t.Errorf("status = %q, want failed without a well-formed report", resp.Task.Status)
	}
	if f.reportRepo.get(resp.TaskID) != nil {
		t.Error("no report should be stored when parsing fails")
	}
}

func TestForkTaskInheritsConcepts(t *testing.T) {
	f := newTaskServiceFixture()
	f.conceptRepo.add("billing", nil)
	f.runner.result = &secondary.AgentResult{Output: reportOutput("ok"), ExitOK: true}

	parent, err := f.service.StartTask(context.Background(), primary.StartTaskRequest{
		Description: "parent work",
		Concepts:    []string{"auth"},
	})
	if err != nil {
		t.Fatalf("StartTask() error = %v", err)
	}

	child, err := f.service.ForkTask(context.Background(), primary.ForkTaskRequest{
		ParentID:           parent.TaskID,
		Description:        "child work",
		AdditionalConcepts: []string{"billing"},
	})
	if err != nil {
		t.Fatalf("ForkTask() error = %v", err)
	}
	if child.Task.ParentID != parent.TaskID {
		t.Errorf("child parent id = %q, want %q", child.Task.ParentID, parent.TaskID)
	}

	got := strings.Join(child.Task.Concepts, ",")
	if !strings.Contains(got, "core") || !strings.Contains(got, "auth") || !strings.Contains(got, "billing") {
		t.Errorf("child concepts = %v, want parent's set plus billing", child.Task.Concepts)
	}

	for _, e := range f.ledger.all() {
		if e.TaskID == child.TaskID && e.ParentID != parent.TaskID {
			t.Errorf("child ledger entry parent = %q, want %q", e.ParentID, parent.TaskID)
		}
	}
}

func TestForkTaskUnknownParent(t *testing.T) {
	f := newTaskServiceFixture()

	_, err := f.service.ForkTask(context.Background(), primary.ForkTaskRequest{
		ParentID:    "nope",
		Description: "orphan",
	})
	if !errors.Is(err, coretask.ErrParentNotFound) {
		t.Errorf("error = %v, want ErrParentNotFound", err)
	}
	if len(f.ledger.all()) != 0 {
		t.Error("no ledger entry should exist for a rejected fork")
	}
}

func TestForkTaskParentMissingFromLedger(t *testing.T) {
	f := newTaskServiceFixture()
	// Metadata row exists but the ledger has no entry for it, so a
	// child entry would dangle.
	err := f.taskRepo.Create(context.Background(), &secondary.TaskRecord{
		ID:        "ffff6666",
		Status:    models.TaskStatusCompleted,
		CreatedAt: "2026-01-01T00:00:00Z",
	})
	if err != nil {
		t.Fatalf("seed task: %v", err)
	}

	_, err = f.service.ForkTask(context.Background(), primary.ForkTaskRequest{
		ParentID:    "ffff6666",
		Description: "would dangle",
	})
	if !errors.Is(err, coretask.ErrParentNotFound) {
		t.Errorf("error = %v, want ErrParentNotFound", err)
	}
	if len(f.ledger.all()) != 0 {
		t.Error("no ledger entry should exist for a rejected fork")
	}
}

func TestResumeTaskWithoutSession(t *testing.T) {
	f := newTaskServiceFixture()
	seedTaskRecord(t, f, &secondary.TaskRecord{
		ID:          "aaaa1111",
		Description: "stuck",
		Status:      models.TaskStatusFailed,
	})
	before := len(f.ledger.all())

	_, err := f.service.ResumeTask(context.Background(), primary.ResumeTaskRequest{TaskID: "aaaa1111"})
	if !errors.Is(err, coretask.ErrSessionUnavailable) {
		t.Fatalf("error = %v, want ErrSessionUnavailable", err)
	}
	if got := f.taskRepo.get("aaaa1111").Status; got != models.TaskStatusFailed {
		t.Errorf("status = %q, prior state must be untouched", got)
	}
	if len(f.ledger.all()) != before {
		t.Error("rejected resume must not append ledger entries")
	}
}

func TestResumeTaskReusesSession(t *testing.T) {
	f := newTaskServiceFixture()
	f.runner.result = &secondary.AgentResult{Output: reportOutput("resumed fine"), ExitOK: true}
	seedTaskRecord(t, f, &secondary.TaskRecord{
		ID:          "bbbb2222",
		SessionID:   "session-xyz",
		Description: "resumable",
		Status:      models.TaskStatusFailed,
	})

	resp, err := f.service.ResumeTask(context.Background(), primary.ResumeTaskRequest{TaskID: "bbbb2222"})
	if err != nil {
		t.Fatalf("ResumeTask() error = %v", err)
	}
	if resp.Task.Status != models.TaskStatusCompleted {
		t.Errorf("status = %q, want completed", resp.Task.Status)
	}

	inv := f.runner.lastInvocation()
	if inv == nil || !inv.Resume {
		t.Fatal("expected a resume invocation")
	}
	if inv.SessionID != "session-xyz" {
		t.Errorf("invocation session = %q, want session-xyz", inv.SessionID)
	}

	statuses := f.ledger.forTask("bbbb2222")
	want := []string{models.TaskStatusPending, models.TaskStatusRunning, models.TaskStatusCompleted}
	if strings.Join(statuses, ",") != strings.Join(want, ",") {
		t.Errorf("ledger statuses = %v, want %v", statuses, want)
	}
}

func TestResumeTaskSessionGone(t *testing.T) {
	f := newTaskServiceFixture()
	f.runner.err = secondary.ErrSessionNotFound
	f.runner.result = nil
	seedTaskRecord(t, f, &secondary.TaskRecord{
		ID:          "cccc3333",
		SessionID:   "session-gone",
		Description: "stale",
		Status:      models.TaskStatusCompleted,
		CompletedAt: "2026-01-02T00:00:00Z",
	})

	_, err := f.service.ResumeTask(context.Background(), primary.ResumeTaskRequest{TaskID: "cccc3333"})
	if !errors.Is(err, coretask.ErrSessionUnavailable) {
		t.Fatalf("error = %v, want ErrSessionUnavailable", err)
	}

	// The agent refused the session before any work ran: the prior
	// terminal state must survive, not be overwritten with failed.
	rec := f.taskRepo.get("cccc3333")
	if rec.Status != models.TaskStatusCompleted {
		t.Errorf("status = %q, want prior completed restored", rec.Status)
	}
	if rec.CompletedAt != "2026-01-02T00:00:00Z" {
		t.Errorf("completed at = %q, original completion stamp must survive", rec.CompletedAt)
	}
	if f.reportRepo.get("cccc3333") != nil {
		t.Error("no report should be stored for a refused resume")
	}
	if len(f.workspace.diagnosticsFor("cccc3333")) == 0 {
		t.Error("expected a diagnostic record for the refused session")
	}

	statuses := f.ledger.forTask("cccc3333")
	if statuses[len(statuses)-1] != models.TaskStatusCompleted {
		t.Errorf("last ledger status = %q, replay must reconstruct the prior state", statuses[len(statuses)-1])
	}
}

func TestResumeTaskUnknown(t *testing.T) {
	f := newTaskServiceFixture()

	_, err := f.service.ResumeTask(context.Background(), primary.ResumeTaskRequest{TaskID: "missing"})
	if !errors.Is(err, coretask.ErrTaskNotFound) {
		t.Errorf("error = %v, want ErrTaskNotFound", err)
	}
}

func TestBackgroundTaskWait(t *testing.T) {
	f := newTaskServiceFixture()
	started := make(chan struct{})
	release := make(chan struct{})
	f.runner.invokeFn = func(ctx context.Context, inv secondary.AgentInvocation) (*secondary.AgentResult, error) {
		close(started)
		<-release
		return &secondary.AgentResult{Output: reportOutput("bg done"), SessionID: inv.SessionID, ExitOK: true}, nil
	}

	resp, err := f.service.StartTask(context.Background(), primary.StartTaskRequest{
		Description: "long haul",
		Background:  true,
	})
	if err != nil {
		t.Fatalf("StartTask() error = %v", err)
	}
	<-started
	if got := f.taskRepo.get(resp.TaskID).Status; got != models.TaskStatusRunning {
		t.Errorf("status while executing = %q, want running", got)
	}

	close(release)
	task, err := f.service.WaitTask(context.Background(), resp.TaskID)
	if err != nil {
		t.Fatalf("WaitTask() error = %v", err)
	}
	if task.Status != models.TaskStatusCompleted {
		t.Errorf("status after wait = %q, want completed", task.Status)
	}
}

func TestCancelTask(t *testing.T) {
	f := newTaskServiceFixture()
	started := make(chan struct{})
	f.runner.invokeFn = func(ctx context.Context, inv secondary.AgentInvocation) (*secondary.AgentResult, error) {
		close(started)
		<-ctx.Done()
		return &secondary.AgentResult{Output: "partial"}, ctx.Err()
	}

	resp, err := f.service.StartTask(context.Background(), primary.StartTaskRequest{
		Description: "to be cancelled",
		Background:  true,
	})
	if err != nil {
		t.Fatalf("StartTask() error = %v", err)
	}
	<-started

	if err := f.service.CancelTask(context.Background(), resp.TaskID); err != nil {
		t.Fatalf("CancelTask() error = %v", err)
	}
	if got := f.taskRepo.get(resp.TaskID).Status; got != models.TaskStatusFailed {
		t.Errorf("status after cancel = %q, want failed", got)
	}

	statuses := f.ledger.forTask(resp.TaskID)
	if statuses[len(statuses)-1] != models.TaskStatusFailed {
		t.Error("cancelled task must end with a failed ledger entry")
	}
}

func TestCancelTaskNotRunning(t *testing.T) {
	f := newTaskServiceFixture()

	err := f.service.CancelTask(context.Background(), "idle")
	if !errors.Is(err, coretask.ErrNotRunning) {
		t.Errorf("error = %v, want ErrNotRunning", err)
	}
}

func TestConcurrentStartsAllLand(t *testing.T) {
	f := newTaskServiceFixture()
	f.runner.result = &secondary.AgentResult{Output: reportOutput("ok"), ExitOK: true}

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.StartTask(context.Background(), primary.StartTaskRequest{
				Description: "parallel",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("StartTask() error = %v", err)
		}
	}

	if got := len(f.taskRepo.sortedIDs()); got != n {
		t.Errorf("task count = %d, want %d", got, n)
	}
	// Three entries per task: pending, running, terminal.
	if got := len(f.ledger.all()); got != n*3 {
		t.Errorf("ledger entries = %d, want %d", got, n*3)
	}
}

func TestTaskOutput(t *testing.T) {
	f := newTaskServiceFixture()
	f.runner.result = &secondary.AgentResult{Output: reportOutput("ok"), ExitOK: true}

	resp, err := f.service.StartTask(context.Background(), primary.StartTaskRequest{
		Description: "with output",
	})
	if err != nil {
		t.Fatalf("StartTask() error = %v", err)
	}

	out, err := f.service.TaskOutput(context.Background(), resp.TaskID)
	if err != nil {
		t.Fatalf("TaskOutput() error = %v", err)
	}
	if !strings.Contains(out, "### BEGIN REPORT") {
		t.Error("output should contain the captured transcript")
	}
}

func TestListTasksAndStats(t *testing.T) {
	f := newTaskServiceFixture()
	f.runner.result = &secondary.AgentResult{Output: reportOutput("ok"), ExitOK: true}

	for i := 0; i < 3; i++ {
		if _, err := f.service.StartTask(context.Background(), primary.StartTaskRequest{Description: "batch"}); err != nil {
			t.Fatalf("StartTask() error = %v", err)
		}
	}

	tasks, err := f.service.ListTasks(context.Background(), primary.TaskFilters{Status: models.TaskStatusCompleted})
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(tasks) != 3 {
		t.Errorf("completed tasks = %d, want 3", len(tasks))
	}

	stats, err := f.service.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats[models.TaskStatusCompleted] != 3 {
		t.Errorf("completed count = %d, want 3", stats[models.TaskStatusCompleted])
	}
}

// seedTaskRecord installs a pre-existing task in both the metadata
// projection and the ledger, as a prior run would have.
func seedTaskRecord(t *testing.T, f *taskServiceFixture, rec *secondary.TaskRecord) {
	t.Helper()
	if rec.CreatedAt == "" {
		rec.CreatedAt = "2026-01-01T00:00:00Z"
	}
	if err := f.taskRepo.Create(context.Background(), rec); err != nil {
		t.Fatalf("seed task: %v", err)
	}
	err := f.ledger.Append(context.Background(), models.LedgerEntry{
		TaskID:      rec.ID,
		Timestamp:   rec.CreatedAt,
		Description: rec.Description,
		Status:      models.TaskStatusPending,
	})
	if err != nil {
		t.Fatalf("seed ledger: %v", err)
	}
}
