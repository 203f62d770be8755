package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/example/ctx/internal/models"
	"github.com/example/ctx/internal/ports/secondary"
)

// Ensure the mocks implement the interfaces
var (
	_ secondary.ConceptRepository = (*mockConceptRepository)(nil)
	_ secondary.TaskRepository    = (*mockTaskRepository)(nil)
	_ secondary.ReportRepository  = (*mockReportRepository)(nil)
	_ secondary.Ledger            = (*mockLedger)(nil)
	_ secondary.TaskWorkspace     = (*mockWorkspace)(nil)
	_ secondary.AgentRunner       = (*mockRunner)(nil)
)

// mockConceptRepository implements secondary.ConceptRepository for testing.
type mockConceptRepository struct {
	concepts   map[string]*models.Concept
	loadAllErr error
}

func newMockConceptRepository() *mockConceptRepository {
	return &mockConceptRepository{concepts: make(map[string]*models.Concept)}
}

func (m *mockConceptRepository) add(name string, refs []string) {
	m.concepts[name] = &models.Concept{
		Name:       name,
		References: refs,
		Body:       "body of " + name,
	}
}

func (m *mockConceptRepository) Load(ctx context.Context, name string) (*models.Concept, error) {
	if c, ok := m.concepts[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("concept %s not found", name)
}

func (m *mockConceptRepository) LoadAll(ctx context.Context) (map[string]*models.Concept, error) {
	if m.loadAllErr != nil {
		return nil, m.loadAllErr
	}
	return m.concepts, nil
}

// mockTaskRepository implements secondary.TaskRepository for testing.
// It is safe for concurrent use so background executions can be tested.
type mockTaskRepository struct {
	mu              sync.Mutex
	tasks           map[string]*secondary.TaskRecord
	order           []string
	createErr       error
	updateStatusErr error
}

func newMockTaskRepository() *mockTaskRepository {
	return &mockTaskRepository{tasks: make(map[string]*secondary.TaskRecord)}
}

func (m *mockTaskRepository) get(id string) *secondary.TaskRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tasks[id]
}

func (m *mockTaskRepository) Create(ctx context.Context, task *secondary.TaskRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *task
	m.tasks[task.ID] = &copied
	m.order = append(m.order, task.ID)
	return nil
}

func (m *mockTaskRepository) GetByID(ctx context.Context, id string) (*secondary.TaskRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, secondary.ErrNotFound
}

func (m *mockTaskRepository) GetByPrefix(ctx context.Context, prefix string) (*secondary.TaskRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var match *secondary.TaskRecord
	for id, t := range m.tasks {
		if id == prefix {
			copied := *t
			return &copied, nil
		}
		if strings.HasPrefix(id, prefix) {
			if match != nil {
				return nil, fmt.Errorf("ambiguous task id prefix %q", prefix)
			}
			match = t
		}
	}
	if match == nil {
		return nil, secondary.ErrNotFound
	}
	copied := *match
	return &copied, nil
}

func (m *mockTaskRepository) List(ctx context.Context, filters secondary.TaskFilters) ([]*secondary.TaskRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*secondary.TaskRecord
	for i := len(m.order) - 1; i >= 0; i-- {
		t := m.tasks[m.order[i]]
		if filters.Status != "" && t.Status != filters.Status {
			continue
		}
		if filters.ParentID != "" && t.ParentID != filters.ParentID {
			continue
		}
		copied := *t
		result = append(result, &copied)
		if filters.Limit > 0 && len(result) == filters.Limit {
			break
		}
	}
	return result, nil
}

func (m *mockTaskRepository) Exists(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tasks[id]
	return ok, nil
}

func (m *mockTaskRepository) UpdateStatus(ctx context.Context, id, status string, setCompleted bool) error {
	if m.updateStatusErr != nil {
		return m.updateStatusErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[id]; ok {
		t.Status = status
		if setCompleted {
			t.CompletedAt = "2026-01-01T00:00:00Z"
		}
	}
	return nil
}

func (m *mockTaskRepository) SetSession(ctx context.Context, id, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[id]; ok {
		t.SessionID = sessionID
	}
	return nil
}

func (m *mockTaskRepository) SetOutputPath(ctx context.Context, id, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[id]; ok {
		t.OutputPath = path
	}
	return nil
}

func (m *mockTaskRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int)
	for _, t := range m.tasks {
		counts[t.Status]++
	}
	return counts, nil
}

// mockReportRepository implements secondary.ReportRepository for testing.
type mockReportRepository struct {
	mu      sync.Mutex
	reports map[string]*secondary.ReportRecord
	saveErr error
}

func newMockReportRepository() *mockReportRepository {
	return &mockReportRepository{reports: make(map[string]*secondary.ReportRecord)}
}

func (m *mockReportRepository) get(taskID string) *secondary.ReportRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reports[taskID]
}

func (m *mockReportRepository) Save(ctx context.Context, report *secondary.ReportRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *report
	m.reports[report.TaskID] = &copied
	return nil
}

func (m *mockReportRepository) GetByTaskID(ctx context.Context, taskID string) (*secondary.ReportRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.reports[taskID]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, secondary.ErrNotFound
}

// mockLedger implements secondary.Ledger for testing. Entries accumulate
// in append order and parent ids are validated like the real ledger.
type mockLedger struct {
	mu        sync.Mutex
	entries   []models.LedgerEntry
	known     map[string]bool
	appendErr error
}

func newMockLedger() *mockLedger {
	return &mockLedger{known: make(map[string]bool)}
}

func (m *mockLedger) all() []models.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.LedgerEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// forTask returns the statuses recorded for one task, in append order.
func (m *mockLedger) forTask(taskID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var statuses []string
	for _, e := range m.entries {
		if e.TaskID == taskID {
			statuses = append(statuses, e.Status)
		}
	}
	return statuses
}

func (m *mockLedger) Append(ctx context.Context, entry models.LedgerEntry) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.ParentID != "" && !m.known[entry.ParentID] {
		return secondary.ErrDanglingParent
	}
	m.entries = append(m.entries, entry)
	m.known[entry.TaskID] = true
	return nil
}

func (m *mockLedger) ReadAll(ctx context.Context) ([]models.LedgerEntry, error) {
	return m.all(), nil
}

func (m *mockLedger) HasTask(ctx context.Context, taskID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.known[taskID], nil
}

// mockWorkspace implements secondary.TaskWorkspace for testing.
type mockWorkspace struct {
	mu          sync.Mutex
	prompts     map[string]string
	outputs     map[string]string
	diagnostics map[string][]string
	promptErr   error
}

func newMockWorkspace() *mockWorkspace {
	return &mockWorkspace{
		prompts:     make(map[string]string),
		outputs:     make(map[string]string),
		diagnostics: make(map[string][]string),
	}
}

func (m *mockWorkspace) prompt(taskID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prompts[taskID]
}

func (m *mockWorkspace) diagnosticsFor(taskID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.diagnostics[taskID]
}

func (m *mockWorkspace) WritePrompt(taskID, prompt string) error {
	if m.promptErr != nil {
		return m.promptErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts[taskID] = prompt
	return nil
}

func (m *mockWorkspace) WriteOutput(taskID, output string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs[taskID] = output
	return "/tmp/tasks/" + taskID + "/output.txt", nil
}

func (m *mockWorkspace) WriteDiagnostic(taskID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.diagnostics[taskID] = append(m.diagnostics[taskID], message)
	return nil
}

func (m *mockWorkspace) ReadOutput(taskID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if out, ok := m.outputs[taskID]; ok {
		return out, nil
	}
	return "", fmt.Errorf("no output for task %s", taskID)
}

func (m *mockWorkspace) Dir(taskID string) string {
	return "/tmp/tasks/" + taskID
}

// mockRunner implements secondary.AgentRunner for testing. invokeFn, when
// set, takes precedence over the canned result.
type mockRunner struct {
	mu          sync.Mutex
	invocations []secondary.AgentInvocation
	result      *secondary.AgentResult
	err         error
	invokeFn    func(ctx context.Context, inv secondary.AgentInvocation) (*secondary.AgentResult, error)
}

func newMockRunner() *mockRunner {
	return &mockRunner{}
}

func (m *mockRunner) lastInvocation() *secondary.AgentInvocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.invocations) == 0 {
		return nil
	}
	inv := m.invocations[len(m.invocations)-1]
	return &inv
}

func (m *mockRunner) Invoke(ctx context.Context, inv secondary.AgentInvocation) (*secondary.AgentResult, error) {
	m.mu.Lock()
	m.invocations = append(m.invocations, inv)
	fn := m.invokeFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, inv)
	}
	if m.err != nil {
		return m.result, m.err
	}
	if m.result != nil {
		res := *m.result
		res.SessionID = inv.SessionID
		return &res, nil
	}
	return &secondary.AgentResult{Output: "done", SessionID: inv.SessionID, ExitOK: true}, nil
}

// reportOutput builds a well-formed agent transcript containing a report
// block with the given summary.
func reportOutput(summary string) string {
	return strings.Join([]string{
		"agent transcript preamble",
		"### BEGIN REPORT",
		"## Summary",
		summary,
		"## Modified Artifacts",
		"- file.go",
		"## Issues",
		"none",
		"## Next Steps",
		"none",
		"### END REPORT",
	}, "\n")
}

// sortedIDs returns the ids of all stored tasks, sorted.
func (m *mockTaskRepository) sortedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.tasks))
	for id := range m.tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
