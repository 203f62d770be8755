package concept

import (
	"strings"

	"github.com/example/ctx/internal/models"
)

// blockRule separates concept blocks in the assembled payload.
var blockRule = strings.Repeat("-", 40)

// Assemble concatenates concept bodies in the given order into a single
// context payload. Each block is prefixed with its concept name so a
// failure can be traced back to a specific contributing concept. Names
// absent from the concept set are skipped; the resolver has already
// reported them.
func Assemble(order []string, concepts map[string]*models.Concept) string {
	var b strings.Builder
	for _, name := range order {
		c, ok := concepts[name]
		if !ok {
			continue
		}
		b.WriteString("## Concept: ")
		b.WriteString(name)
		b.WriteString("\n\n")
		b.WriteString(strings.TrimRight(c.Body, "\n"))
		b.WriteString("\n")
		b.WriteString(blockRule)
		b.WriteString("\n")
	}
	return b.String()
}
