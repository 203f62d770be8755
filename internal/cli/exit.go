package cli

import (
	"errors"

	"github.com/example/ctx/internal/core/concept"
	coretask "github.com/example/ctx/internal/core/task"
	"github.com/example/ctx/internal/ports/secondary"
	"github.com/example/ctx/internal/templates"
)

// Exit codes: 0 success, 2 input error (unknown names, bad arguments,
// rejected transitions), 1 internal failure.
const (
	ExitOK       = 0
	ExitInternal = 1
	ExitInput    = 2
)

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, coretask.ErrTaskNotFound) ||
		errors.Is(err, coretask.ErrParentNotFound) ||
		errors.Is(err, coretask.ErrSessionUnavailable) ||
		errors.Is(err, coretask.ErrNotRunning) ||
		errors.Is(err, concept.ErrConceptNotFound) ||
		errors.Is(err, secondary.ErrNotFound) {
		return ExitInput
	}

	var unknownConcepts *concept.UnknownConceptError
	var cyclic *concept.CyclicReferenceError
	var malformed *concept.MalformedConceptError
	var unknownTemplate *templates.ErrUnknownTemplate
	if errors.As(err, &unknownConcepts) ||
		errors.As(err, &cyclic) ||
		errors.As(err, &malformed) ||
		errors.As(err, &unknownTemplate) {
		return ExitInput
	}

	return ExitInternal
}
