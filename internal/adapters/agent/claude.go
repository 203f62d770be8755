// Package agent contains the adapter for the external agent
// collaborator. The collaborator is an opaque subprocess: it accepts a
// prompt and returns a completion plus a session identifier. This core
// never introspects what the agent does, it only makes the effects of
// the call durable.
package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/example/ctx/internal/ports/secondary"
)

// DefaultBinary is the agent CLI invoked when none is configured.
const DefaultBinary = "claude"

// ClaudeRunner implements secondary.AgentRunner over the claude CLI.
type ClaudeRunner struct {
	binary string
}

// NewClaudeRunner creates a runner for the given binary. An empty
// binary selects the default.
func NewClaudeRunner(binary string) *ClaudeRunner {
	if binary == "" {
		binary = DefaultBinary
	}
	return &ClaudeRunner{binary: binary}
}

// Invoke runs one agent call to completion. Fresh invocations pin the
// session id so the task can be resumed later; resumes continue the
// recorded session. Cancelling ctx kills the process. A non-zero exit
// is not an error here: the result carries ExitOK and the captured
// output, and the orchestrator decides what it means.
func (r *ClaudeRunner) Invoke(ctx context.Context, inv secondary.AgentInvocation) (*secondary.AgentResult, error) {
	args := []string{}
	if inv.Resume {
		args = append(args, "--resume", inv.SessionID)
	} else {
		args = append(args, "--session-id", inv.SessionID)
	}
	// --print exits after the response instead of staying interactive.
	args = append(args, "--print", inv.Prompt)

	cmd := exec.CommandContext(ctx, r.binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start agent process: %w", err)
	}

	err := cmd.Wait()
	result := &secondary.AgentResult{
		Output:    stdout.String(),
		Stderr:    stderr.String(),
		SessionID: inv.SessionID,
		ExitOK:    err == nil,
	}

	if err != nil {
		if ctx.Err() != nil {
			return result, fmt.Errorf("agent process terminated: %w", ctx.Err())
		}
		if inv.Resume && sessionGone(stderr.String()) {
			return result, fmt.Errorf("session %s: %w", inv.SessionID, secondary.ErrSessionNotFound)
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("agent process failed: %w", err)
		}
	}

	return result, nil
}

// sessionGone sniffs the agent's stderr for the session-missing
// diagnostics the CLI emits when asked to resume an unknown session.
func sessionGone(stderr string) bool {
	lower := strings.ToLower(stderr)
	return strings.Contains(lower, "no conversation found") ||
		strings.Contains(lower, "session not found") ||
		strings.Contains(lower, "unknown session")
}

// Ensure ClaudeRunner implements the interface
var _ secondary.AgentRunner = (*ClaudeRunner)(nil)
