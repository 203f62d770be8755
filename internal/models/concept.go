// Package models contains domain types for ctx entities.
// Persistence lives in internal/adapters/*.
package models

// Concept is a reusable knowledge document. It is authored externally
// as a markdown file with YAML front matter and is read-only from the
// perspective of task execution.
type Concept struct {
	Name       string
	References []string
	Body       string
	FilePath   string
}

// Size returns the body size in bytes.
func (c *Concept) Size() int {
	return len(c.Body)
}

// MissingReferences returns the references of c that are absent from
// the given concept set.
func (c *Concept) MissingReferences(concepts map[string]*Concept) []string {
	var missing []string
	for _, ref := range c.References {
		if _, ok := concepts[ref]; !ok {
			missing = append(missing, ref)
		}
	}
	return missing
}
