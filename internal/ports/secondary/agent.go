package secondary

import (
	"context"
	"errors"
)

// ErrSessionNotFound indicates the external agent reported that the
// session to resume no longer exists.
var ErrSessionNotFound = errors.New("agent session not found")

// AgentInvocation describes one call into the external agent
// collaborator.
type AgentInvocation struct {
	// Prompt is the full prompt: assembled context, task description
	// and report instruction.
	Prompt string

	// SessionID names the agent session. For a fresh invocation it is
	// the session to create; with Resume set it is the session to
	// continue.
	SessionID string

	// Resume continues an existing session instead of starting one.
	Resume bool
}

// AgentResult is what came back from the collaborator.
type AgentResult struct {
	// Output is the captured stdout, report block included.
	Output string

	// Stderr is the captured diagnostic output.
	Stderr string

	// SessionID is the session the work ran under. On resume the agent
	// may allocate a new session.
	SessionID string

	// ExitOK reports whether the process exit indicated success.
	ExitOK bool
}

// AgentRunner invokes the external agent collaborator. The call is
// opaque, potentially slow and potentially failing; cancelling ctx
// terminates the underlying process.
type AgentRunner interface {
	Invoke(ctx context.Context, inv AgentInvocation) (*AgentResult, error)
}
