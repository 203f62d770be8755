// Package app implements the primary ports by composing the core logic
// with the secondary-port adapters.
package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/example/ctx/internal/core/concept"
	"github.com/example/ctx/internal/ports/primary"
	"github.com/example/ctx/internal/ports/secondary"
)

// ConceptServiceImpl implements the ConceptService interface.
type ConceptServiceImpl struct {
	conceptRepo secondary.ConceptRepository
	baseline    string
}

// NewConceptService creates a new ConceptService with injected
// dependencies. baseline names the concept implicitly loaded for every
// resolution; empty disables the policy.
func NewConceptService(conceptRepo secondary.ConceptRepository, baseline string) *ConceptServiceImpl {
	return &ConceptServiceImpl{
		conceptRepo: conceptRepo,
		baseline:    baseline,
	}
}

// ListConcepts returns summaries of every concept, sorted by name.
func (s *ConceptServiceImpl) ListConcepts(ctx context.Context) ([]*primary.ConceptSummary, error) {
	concepts, err := s.conceptRepo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load concepts: %w", err)
	}

	summaries := make([]*primary.ConceptSummary, 0, len(concepts))
	for _, c := range concepts {
		summaries = append(summaries, &primary.ConceptSummary{
			Name:       c.Name,
			References: len(c.References),
			Size:       c.Size(),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Name < summaries[j].Name
	})

	return summaries, nil
}

// GetConcept returns one concept with its full body.
func (s *ConceptServiceImpl) GetConcept(ctx context.Context, name string) (*primary.ConceptDetail, error) {
	c, err := s.conceptRepo.Load(ctx, name)
	if err != nil {
		return nil, err
	}

	return &primary.ConceptDetail{
		Name:       c.Name,
		References: c.References,
		Size:       c.Size(),
		Body:       c.Body,
	}, nil
}

// ResolveConcepts computes the dependency-ordered closure of the
// requested names.
func (s *ConceptServiceImpl) ResolveConcepts(ctx context.Context, names []string) (*primary.Resolution, error) {
	concepts, err := s.conceptRepo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load concepts: %w", err)
	}

	res, err := concept.NewResolver(concepts, s.baseline).Resolve(names)
	if err != nil {
		return nil, err
	}

	return &primary.Resolution{Order: res.Order, Missing: res.Missing}, nil
}

// AssembleContext resolves the names and concatenates the bodies into a
// single context payload.
func (s *ConceptServiceImpl) AssembleContext(ctx context.Context, names []string) (*primary.ContextPayload, error) {
	concepts, err := s.conceptRepo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load concepts: %w", err)
	}

	res, err := concept.NewResolver(concepts, s.baseline).Resolve(names)
	if err != nil {
		return nil, err
	}

	return &primary.ContextPayload{
		Order:   res.Order,
		Missing: res.Missing,
		Payload: concept.Assemble(res.Order, concepts),
	}, nil
}

// ValidateReferences reports, per concept, references that point at
// absent concepts.
func (s *ConceptServiceImpl) ValidateReferences(ctx context.Context) (map[string][]string, error) {
	concepts, err := s.conceptRepo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load concepts: %w", err)
	}

	issues := make(map[string][]string)
	for name, c := range concepts {
		if missing := c.MissingReferences(concepts); len(missing) > 0 {
			issues[name] = missing
		}
	}

	return issues, nil
}

// Stats returns collection-level statistics.
func (s *ConceptServiceImpl) Stats(ctx context.Context) (*primary.ConceptStats, error) {
	concepts, err := s.conceptRepo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load concepts: %w", err)
	}

	stats := &primary.ConceptStats{Total: len(concepts)}
	for _, c := range concepts {
		stats.TotalSize += c.Size()
		stats.TotalReferences += len(c.References)
		if len(c.MissingReferences(concepts)) > 0 {
			stats.ValidationIssues++
		}
	}
	if stats.Total > 0 {
		stats.AverageSize = stats.TotalSize / stats.Total
	}

	return stats, nil
}

// Ensure ConceptServiceImpl implements the interface
var _ primary.ConceptService = (*ConceptServiceImpl)(nil)
