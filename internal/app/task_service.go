package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/ctx/internal/core/concept"
	"github.com/example/ctx/internal/core/report"
	coretask "github.com/example/ctx/internal/core/task"
	"github.com/example/ctx/internal/models"
	"github.com/example/ctx/internal/ports/primary"
	"github.com/example/ctx/internal/ports/secondary"
	"github.com/example/ctx/internal/templates"
)

// TaskServiceImpl implements the TaskService interface. It owns the
// decision of when a task changes status, and routes every transition
// through the ledger's append operation.
type TaskServiceImpl struct {
	conceptRepo secondary.ConceptRepository
	taskRepo    secondary.TaskRepository
	reportRepo  secondary.ReportRepository
	ledger      secondary.Ledger
	workspace   secondary.TaskWorkspace
	runner      secondary.AgentRunner

	baseline        string
	defaultTemplate string

	mu      sync.Mutex
	running map[string]*execution
}

// execution tracks one in-process agent run.
type execution struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTaskService creates a new TaskService with injected dependencies.
func NewTaskService(
	conceptRepo secondary.ConceptRepository,
	taskRepo secondary.TaskRepository,
	reportRepo secondary.ReportRepository,
	ledger secondary.Ledger,
	workspace secondary.TaskWorkspace,
	runner secondary.AgentRunner,
	baseline string,
	defaultTemplate string,
) *TaskServiceImpl {
	if defaultTemplate == "" {
		defaultTemplate = templates.Default
	}
	return &TaskServiceImpl{
		conceptRepo:     conceptRepo,
		taskRepo:        taskRepo,
		reportRepo:      reportRepo,
		ledger:          ledger,
		workspace:       workspace,
		runner:          runner,
		baseline:        baseline,
		defaultTemplate: defaultTemplate,
		running:         make(map[string]*execution),
	}
}

// launchSpec carries the shared parameters of start and fork.
type launchSpec struct {
	description  string
	concepts     []string
	extraContext string
	parentID     string
	background   bool
	template     string
	allowMissing bool
}

// StartTask creates a root task and launches the agent.
func (s *TaskServiceImpl) StartTask(ctx context.Context, req primary.StartTaskRequest) (*primary.StartTaskResponse, error) {
	return s.launch(ctx, launchSpec{
		description:  req.Description,
		concepts:     req.Concepts,
		extraContext: req.Context,
		background:   req.Background,
		template:     req.ReportTemplate,
		allowMissing: req.AllowMissing,
	})
}

// ForkTask creates a child task inheriting the parent's resolved
// concept set unioned with any additional concepts.
func (s *TaskServiceImpl) ForkTask(ctx context.Context, req primary.ForkTaskRequest) (*primary.StartTaskResponse, error) {
	parent, err := s.taskRepo.GetByPrefix(ctx, req.ParentID)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, fmt.Errorf("fork %s: %w", req.ParentID, coretask.ErrParentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load parent task: %w", err)
	}

	// The metadata row alone is not enough: the parent must have a
	// ledger entry, or the child's own entries would dangle.
	hasEntry, err := s.ledger.HasTask(ctx, parent.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check ledger: %w", err)
	}
	if g := coretask.CanFork(coretask.ForkContext{ParentID: parent.ID, ParentExists: hasEntry}); !g.Allowed {
		return nil, fmt.Errorf("%s: %w", g.Reason, coretask.ErrParentNotFound)
	}

	return s.launch(ctx, launchSpec{
		description:  req.Description,
		concepts:     unionConcepts(parent.Concepts, req.AdditionalConcepts),
		extraContext: req.Context,
		parentID:     parent.ID,
		background:   req.Background,
		template:     req.ReportTemplate,
	})
}

// launch resolves context, writes the pending records, transitions to
// running and hands the agent call to execute. Every failure before the
// running transition aborts the launch with no running state.
func (s *TaskServiceImpl) launch(ctx context.Context, spec launchSpec) (*primary.StartTaskResponse, error) {
	templateName := spec.template
	if templateName == "" {
		templateName = s.defaultTemplate
	}
	templateBody, err := templates.Get(templateName)
	if err != nil {
		return nil, err
	}

	concepts, err := s.conceptRepo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load concepts: %w", err)
	}
	res, err := concept.NewResolver(concepts, s.baseline).Resolve(spec.concepts)
	if err != nil {
		return nil, err
	}
	if len(res.Missing) > 0 && !spec.allowMissing {
		return nil, &concept.UnknownConceptError{Names: res.Missing}
	}
	payload := concept.Assemble(res.Order, concepts)

	taskID := newTaskID()
	sessionID := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339)

	record := &secondary.TaskRecord{
		ID:          taskID,
		ParentID:    spec.parentID,
		Description: spec.description,
		Concepts:    res.Order,
		Status:      models.TaskStatusPending,
		CreatedAt:   now,
	}
	if err := s.taskRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create task metadata: %w", err)
	}

	if err := s.ledger.Append(ctx, models.LedgerEntry{
		TaskID:      taskID,
		ParentID:    spec.parentID,
		Timestamp:   now,
		Description: spec.description,
		Status:      models.TaskStatusPending,
	}); err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	instruction := report.Instruction(
		strings.ReplaceAll(templateBody, "{{task_id}}", taskID))
	prompt := buildPrompt(spec.description, payload, spec.extraContext, instruction)
	if err := s.workspace.WritePrompt(taskID, prompt); err != nil {
		return nil, fmt.Errorf("failed to store prompt: %w", err)
	}

	if err := s.transition(ctx, taskID, spec.parentID, spec.description, models.TaskStatusRunning, false); err != nil {
		return nil, err
	}

	inv := secondary.AgentInvocation{Prompt: prompt, SessionID: sessionID}
	return s.run(ctx, taskID, spec.parentID, spec.description, templateName, inv, spec.background, "")
}

// ResumeTask continues a task's recorded agent session. A new ledger
// entry records the resumption.
func (s *TaskServiceImpl) ResumeTask(ctx context.Context, req primary.ResumeTaskRequest) (*primary.StartTaskResponse, error) {
	rec, err := s.taskRepo.GetByPrefix(ctx, req.TaskID)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, fmt.Errorf("resume %s: %w", req.TaskID, coretask.ErrTaskNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}

	if g := coretask.CanResume(coretask.ResumeContext{TaskID: rec.ID, SessionID: rec.SessionID}); !g.Allowed {
		return nil, fmt.Errorf("%s: %w", g.Reason, coretask.ErrSessionUnavailable)
	}

	prompt := req.Prompt
	if prompt == "" {
		templateBody, err := templates.Get(s.defaultTemplate)
		if err != nil {
			return nil, err
		}
		instruction := report.Instruction(
			strings.ReplaceAll(templateBody, "{{task_id}}", rec.ID))
		prompt = fmt.Sprintf("Continue the task: %s\n\n%s", rec.Description, instruction)
	}

	priorStatus := rec.Status
	if err := s.transition(ctx, rec.ID, rec.ParentID, rec.Description, models.TaskStatusRunning, false); err != nil {
		return nil, err
	}

	inv := secondary.AgentInvocation{Prompt: prompt, SessionID: rec.SessionID, Resume: true}
	resp, err := s.run(ctx, rec.ID, rec.ParentID, rec.Description, s.defaultTemplate, inv, req.Background, priorStatus)
	if err != nil && errors.Is(err, secondary.ErrSessionNotFound) {
		return resp, fmt.Errorf("session %s no longer exists: %w", rec.SessionID, coretask.ErrSessionUnavailable)
	}
	return resp, err
}

// run registers an execution and either blocks on it (foreground) or
// returns while it proceeds (background). Finalize writes happen before
// the execution's done channel closes, so a status read after waiting
// always sees the terminal state.
func (s *TaskServiceImpl) run(ctx context.Context, taskID, parentID, description, templateName string, inv secondary.AgentInvocation, background bool, priorStatus string) (*primary.StartTaskResponse, error) {
	execCtx, cancel := context.WithCancel(context.Background())
	exec := &execution{cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	s.running[taskID] = exec
	s.mu.Unlock()

	var invokeErr error
	runOnce := func() {
		invokeErr = s.execute(execCtx, taskID, parentID, description, templateName, inv, priorStatus)
		s.mu.Lock()
		delete(s.running, taskID)
		s.mu.Unlock()
		cancel()
		close(exec.done)
	}

	if background {
		go runOnce()
		task, err := s.GetTask(ctx, taskID)
		if err != nil {
			return nil, err
		}
		return &primary.StartTaskResponse{TaskID: taskID, Task: task}, nil
	}

	runOnce()
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	resp := &primary.StartTaskResponse{TaskID: taskID, Task: task}
	if invokeErr != nil && errors.Is(invokeErr, secondary.ErrSessionNotFound) {
		return resp, invokeErr
	}
	return resp, nil
}

// execute performs the agent call and finalizes the task. It never
// leaves a task in running: any outcome, including cancellation and
// spawn failure, ends in a terminal record. The one exception is a
// resume whose session the agent no longer knows: no work ran, so the
// task's prior status is re-asserted instead of recording a failure.
func (s *TaskServiceImpl) execute(ctx context.Context, taskID, parentID, description, templateName string, inv secondary.AgentInvocation, priorStatus string) error {
	result, err := s.runner.Invoke(ctx, inv)

	if errors.Is(err, secondary.ErrSessionNotFound) && priorStatus != "" {
		_ = s.workspace.WriteDiagnostic(taskID, err.Error())
		_ = s.transition(context.Background(), taskID, parentID, description, priorStatus, false)
		return err
	}

	output := ""
	exitOK := false
	if result != nil {
		output = result.Output
		exitOK = result.ExitOK && err == nil
		if result.Stderr != "" {
			_ = s.workspace.WriteDiagnostic(taskID, result.Stderr)
		}
		if result.SessionID != "" && err == nil {
			// The session only becomes resumable once the process
			// actually ran under it.
			_ = s.taskRepo.SetSession(context.Background(), taskID, result.SessionID)
		}
	}
	if err != nil {
		_ = s.workspace.WriteDiagnostic(taskID, err.Error())
	}

	s.finalize(taskID, parentID, description, templateName, output, exitOK)
	return err
}

// finalize parses the report block, persists whatever output was
// captured and appends the terminal ledger entry. It uses a background
// context so a cancelled task still gets its failed record.
func (s *TaskServiceImpl) finalize(taskID, parentID, description, templateName, output string, exitOK bool) {
	bg := context.Background()

	if rec, err := s.taskRepo.GetByID(bg, taskID); err == nil {
		if g := coretask.CanFinalize(coretask.FinalizeContext{TaskID: taskID, Status: rec.Status}); !g.Allowed {
			return
		}
	}

	if path, err := s.workspace.WriteOutput(taskID, output); err == nil {
		_ = s.taskRepo.SetOutputPath(bg, taskID, path)
	}

	rep, wellFormed := report.Parse(output)
	status := models.TaskStatusFailed
	if exitOK && wellFormed {
		status = models.TaskStatusCompleted
	}

	if wellFormed {
		_ = s.reportRepo.Save(bg, &secondary.ReportRecord{
			TaskID:      taskID,
			Status:      status,
			Template:    templateName,
			Summary:     rep.Summary,
			Artifacts:   rep.Artifacts,
			Issues:      rep.Issues,
			NextSteps:   rep.NextSteps,
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		})
	}

	_ = s.transition(bg, taskID, parentID, description, status, true)
}

// transition routes a status change through both the metadata
// projection and the ledger.
func (s *TaskServiceImpl) transition(ctx context.Context, taskID, parentID, description, status string, terminal bool) error {
	if rec, err := s.taskRepo.GetByID(ctx, taskID); err == nil {
		// Re-asserting the current status is a no-op step; the restore
		// after a refused resume relies on it.
		if rec.Status != status && !coretask.CanTransition(rec.Status, status) {
			return fmt.Errorf("illegal status transition %s -> %s for task %s", rec.Status, status, taskID)
		}
	}
	if err := s.taskRepo.UpdateStatus(ctx, taskID, status, terminal); err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}
	if err := s.ledger.Append(ctx, models.LedgerEntry{
		TaskID:      taskID,
		ParentID:    parentID,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Description: description,
		Status:      status,
	}); err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

// GetTask retrieves a task by id or unique id prefix.
func (s *TaskServiceImpl) GetTask(ctx context.Context, idOrPrefix string) (*primary.Task, error) {
	rec, err := s.taskRepo.GetByPrefix(ctx, idOrPrefix)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", idOrPrefix, coretask.ErrTaskNotFound)
	}
	if err != nil {
		return nil, err
	}
	return recordToTask(rec), nil
}

// ListTasks lists tasks, newest first, with optional filters.
func (s *TaskServiceImpl) ListTasks(ctx context.Context, filters primary.TaskFilters) ([]*primary.Task, error) {
	records, err := s.taskRepo.List(ctx, secondary.TaskFilters{
		Status:   filters.Status,
		ParentID: filters.ParentID,
		Limit:    filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]*primary.Task, len(records))
	for i, r := range records {
		tasks[i] = recordToTask(r)
	}
	return tasks, nil
}

// WaitTask blocks until the task reaches a terminal status.
func (s *TaskServiceImpl) WaitTask(ctx context.Context, taskID string) (*primary.Task, error) {
	s.mu.Lock()
	exec, ok := s.running[taskID]
	s.mu.Unlock()

	if ok {
		select {
		case <-exec.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return s.GetTask(ctx, taskID)
}

// CancelTask terminates a running task's agent process and waits for
// the failed record to land.
func (s *TaskServiceImpl) CancelTask(ctx context.Context, taskID string) error {
	s.mu.Lock()
	exec, ok := s.running[taskID]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("task %s: %w", taskID, coretask.ErrNotRunning)
	}

	exec.cancel()
	select {
	case <-exec.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TaskOutput returns the captured output payload of a task.
func (s *TaskServiceImpl) TaskOutput(ctx context.Context, idOrPrefix string) (string, error) {
	rec, err := s.taskRepo.GetByPrefix(ctx, idOrPrefix)
	if errors.Is(err, secondary.ErrNotFound) {
		return "", fmt.Errorf("%s: %w", idOrPrefix, coretask.ErrTaskNotFound)
	}
	if err != nil {
		return "", err
	}
	return s.workspace.ReadOutput(rec.ID)
}

// LedgerEntries returns the full ledger history, oldest first.
func (s *TaskServiceImpl) LedgerEntries(ctx context.Context) ([]primary.LedgerEntry, error) {
	entries, err := s.ledger.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	out := make([]primary.LedgerEntry, len(entries))
	for i, e := range entries {
		out[i] = primary.LedgerEntry{
			TaskID:      e.TaskID,
			ParentID:    e.ParentID,
			Timestamp:   e.Timestamp,
			Description: e.Description,
			Status:      e.Status,
		}
	}
	return out, nil
}

// Stats returns task counts per status.
func (s *TaskServiceImpl) Stats(ctx context.Context) (map[string]int, error) {
	return s.taskRepo.CountByStatus(ctx)
}

// newTaskID allocates a short task identifier. Eight hex characters of
// a UUID keep ids human-typeable; the metadata store enforces
// uniqueness.
func newTaskID() string {
	return uuid.NewString()[:8]
}

// unionConcepts appends additions to base, preserving order and
// dropping duplicates.
func unionConcepts(base, additions []string) []string {
	seen := make(map[string]bool, len(base))
	out := make([]string, 0, len(base)+len(additions))
	for _, name := range base {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, name := range additions {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// buildPrompt assembles the full prompt handed to the agent.
func buildPrompt(description, conceptPayload, extraContext, reportInstruction string) string {
	var b strings.Builder
	b.WriteString("You are executing a ctx managed task.\n\n")
	fmt.Fprintf(&b, "TASK: %s\n\n", description)
	if conceptPayload != "" {
		b.WriteString("LOADED CONCEPTS:\n")
		b.WriteString(conceptPayload)
		b.WriteString("\n")
	}
	if extraContext != "" {
		b.WriteString("ADDITIONAL CONTEXT:\n")
		b.WriteString(extraContext)
		b.WriteString("\n\n")
	}
	b.WriteString("Complete this task. Your work is logged and can be resumed later.\n\n")
	b.WriteString(reportInstruction)
	return b.String()
}

// recordToTask converts a persistence record to the caller-facing view.
func recordToTask(r *secondary.TaskRecord) *primary.Task {
	return &primary.Task{
		ID:          r.ID,
		ParentID:    r.ParentID,
		SessionID:   r.SessionID,
		Description: r.Description,
		Concepts:    r.Concepts,
		Status:      r.Status,
		OutputPath:  r.OutputPath,
		CreatedAt:   r.CreatedAt,
		CompletedAt: r.CompletedAt,
	}
}

// Ensure TaskServiceImpl implements the interface
var _ primary.TaskService = (*TaskServiceImpl)(nil)
