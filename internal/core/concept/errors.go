package concept

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConceptNotFound indicates a single concept lookup missed.
var ErrConceptNotFound = errors.New("concept not found")

// MalformedConceptError indicates a concept document whose metadata
// block could not be parsed. The store does not attempt partial
// recovery; the offending document is named.
type MalformedConceptError struct {
	Name string
	Err  error
}

func (e *MalformedConceptError) Error() string {
	return fmt.Sprintf("malformed concept %s: %v", e.Name, e.Err)
}

func (e *MalformedConceptError) Unwrap() error {
	return e.Err
}

// CyclicReferenceError indicates the reference graph contains a cycle
// reachable from a requested concept. Path holds the cycle, starting
// and ending at the same concept.
type CyclicReferenceError struct {
	Path []string
}

func (e *CyclicReferenceError) Error() string {
	return fmt.Sprintf("cyclic concept reference: %s", strings.Join(e.Path, " -> "))
}

// UnknownConceptError indicates requested concept names that are absent
// from the store.
type UnknownConceptError struct {
	Names []string
}

func (e *UnknownConceptError) Error() string {
	return fmt.Sprintf("unknown concepts: %s", strings.Join(e.Names, ", "))
}
