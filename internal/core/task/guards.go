// Package task contains the pure business logic for task lifecycle
// operations. Guards are pure functions that evaluate preconditions
// without side effects.
package task

import (
	"fmt"

	"github.com/example/ctx/internal/models"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// ForkContext provides context for fork guards.
type ForkContext struct {
	ParentID     string
	ParentExists bool
}

// ResumeContext provides context for resume guards.
type ResumeContext struct {
	TaskID    string
	SessionID string // empty if no session was ever recorded
}

// FinalizeContext provides context for finalize guards.
type FinalizeContext struct {
	TaskID string
	Status string
}

// CanFork evaluates whether a task can be forked from a parent.
// Rules:
// - Parent task must exist in the metadata store
func CanFork(ctx ForkContext) GuardResult {
	if !ctx.ParentExists {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("parent task %s not found", ctx.ParentID),
		}
	}
	return GuardResult{Allowed: true}
}

// CanResume evaluates whether a task can be resumed.
// Rules:
// - A session id must have been recorded (the original spawn reached
//   the agent)
func CanResume(ctx ResumeContext) GuardResult {
	if ctx.SessionID == "" {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("task %s has no agent session to resume", ctx.TaskID),
		}
	}
	return GuardResult{Allowed: true}
}

// CanFinalize evaluates whether a task can transition to a terminal
// state.
// Rules:
// - Only running tasks are finalized; terminal tasks are immutable
//   except for appending a report
func CanFinalize(ctx FinalizeContext) GuardResult {
	if ctx.Status != models.TaskStatusRunning {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("can only finalize running tasks (task %s is %s)", ctx.TaskID, ctx.Status),
		}
	}
	return GuardResult{Allowed: true}
}

// NextStatuses returns the statuses reachable from the given status.
func NextStatuses(status string) []string {
	switch status {
	case models.TaskStatusPending:
		return []string{models.TaskStatusRunning, models.TaskStatusFailed}
	case models.TaskStatusRunning:
		return []string{models.TaskStatusCompleted, models.TaskStatusFailed}
	default:
		return nil
	}
}

// CanTransition reports whether moving from one status to another is a
// legal lifecycle step. Resuming a terminal task back to running is the
// single sanctioned re-entry, recorded as a fresh ledger entry.
func CanTransition(from, to string) bool {
	if models.IsTerminal(from) && to == models.TaskStatusRunning {
		return true
	}
	for _, s := range NextStatuses(from) {
		if s == to {
			return true
		}
	}
	return false
}
