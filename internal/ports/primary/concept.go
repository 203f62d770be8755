// Package primary defines the driving ports: the service interfaces
// the CLI (and any other front end) calls into.
package primary

import "context"

// ConceptService defines the primary port for concept operations.
type ConceptService interface {
	// ListConcepts returns summaries of every concept in the store.
	ListConcepts(ctx context.Context) ([]*ConceptSummary, error)

	// GetConcept returns one concept with its full body.
	GetConcept(ctx context.Context, name string) (*ConceptDetail, error)

	// ResolveConcepts computes the dependency-ordered closure of the
	// requested names.
	ResolveConcepts(ctx context.Context, names []string) (*Resolution, error)

	// AssembleContext resolves the names and concatenates the bodies
	// into a single context payload.
	AssembleContext(ctx context.Context, names []string) (*ContextPayload, error)

	// ValidateReferences reports, per concept, references that point at
	// absent concepts.
	ValidateReferences(ctx context.Context) (map[string][]string, error)

	// Stats returns collection-level statistics.
	Stats(ctx context.Context) (*ConceptStats, error)
}

// ConceptSummary describes a concept without its body.
type ConceptSummary struct {
	Name       string
	References int
	Size       int
}

// ConceptDetail is a full concept view.
type ConceptDetail struct {
	Name       string
	References []string
	Size       int
	Body       string
}

// Resolution is the outcome of resolving a concept request.
type Resolution struct {
	Order   []string
	Missing []string
}

// ContextPayload is an assembled task context.
type ContextPayload struct {
	Order   []string
	Missing []string
	Payload string
}

// ConceptStats summarizes the collection.
type ConceptStats struct {
	Total            int
	TotalSize        int
	AverageSize      int
	TotalReferences  int
	ValidationIssues int
}
