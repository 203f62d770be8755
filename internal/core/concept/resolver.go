// Package concept contains the pure logic for resolving concept
// dependency graphs into deterministic load orders.
package concept

import (
	"github.com/example/ctx/internal/models"
)

// Traversal colors for cycle detection.
type color int

const (
	unvisited color = iota // not yet seen
	visiting               // on the current DFS path
	resolved               // fully expanded
)

// Resolution is the outcome of resolving a requested concept set.
type Resolution struct {
	// Order lists concept names dependency-first: a concept never
	// appears before a concept it references. Deduplicated.
	Order []string
	// Missing lists requested names absent from the store, in request
	// order. The caller decides whether to proceed or abort.
	Missing []string
}

// Resolver computes transitive closures over an in-memory concept set.
type Resolver struct {
	concepts map[string]*models.Concept
	baseline string
}

// NewResolver creates a resolver over the given concepts. If baseline
// is non-empty it is implicitly prepended to every request that does
// not already include it.
func NewResolver(concepts map[string]*models.Concept, baseline string) *Resolver {
	return &Resolver{concepts: concepts, baseline: baseline}
}

// Resolve computes the deduplicated, dependency-ordered closure of the
// requested names. Requested names absent from the store are collected
// in Resolution.Missing; resolution of the remaining names proceeds.
// A cycle anywhere on a traversed path aborts the whole resolution with
// a CyclicReferenceError — no partial order is returned. References of
// present concepts that point at absent concepts are skipped.
func (r *Resolver) Resolve(requested []string) (*Resolution, error) {
	names := r.withBaseline(requested)

	res := &Resolution{}
	colors := make(map[string]color, len(r.concepts))
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		switch colors[name] {
		case resolved:
			return nil
		case visiting:
			return &CyclicReferenceError{Path: cyclePath(path, name)}
		}

		colors[name] = visiting
		path = append(path, name)

		c := r.concepts[name]
		for _, ref := range c.References {
			if _, ok := r.concepts[ref]; !ok {
				continue
			}
			if err := visit(ref); err != nil {
				return err
			}
		}

		path = path[:len(path)-1]
		colors[name] = resolved
		res.Order = append(res.Order, name)
		return nil
	}

	for _, name := range names {
		if _, ok := r.concepts[name]; !ok {
			res.Missing = append(res.Missing, name)
			continue
		}
		if err := visit(name); err != nil {
			return nil, err
		}
	}

	return res, nil
}

// withBaseline prepends the baseline concept unless already requested.
func (r *Resolver) withBaseline(requested []string) []string {
	if r.baseline == "" {
		return requested
	}
	for _, name := range requested {
		if name == r.baseline {
			return requested
		}
	}
	return append([]string{r.baseline}, requested...)
}

// cyclePath extracts the cycle from the DFS path, closing it with the
// repeated name.
func cyclePath(path []string, name string) []string {
	for i, n := range path {
		if n == name {
			cycle := append([]string{}, path[i:]...)
			return append(cycle, name)
		}
	}
	return []string{name, name}
}
