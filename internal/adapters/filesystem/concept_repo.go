// Package filesystem contains filesystem-backed implementations of
// repository interfaces: the concept store, the append-only task
// ledger and the per-task workspace.
package filesystem

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/ctx/internal/core/concept"
	"github.com/example/ctx/internal/models"
	"github.com/example/ctx/internal/ports/secondary"
)

// ConceptRepository loads concept documents from a directory of
// markdown files with YAML front matter. Documents are authored
// externally; this repository only reads.
type ConceptRepository struct {
	dir string
}

// NewConceptRepository creates a concept repository over a directory.
func NewConceptRepository(dir string) *ConceptRepository {
	return &ConceptRepository{dir: dir}
}

// conceptHeader is the front matter shape of a concept document.
type conceptHeader struct {
	Name       string   `yaml:"name"`
	References []string `yaml:"references"`
}

// Load returns a single concept by name.
func (r *ConceptRepository) Load(ctx context.Context, name string) (*models.Concept, error) {
	path := filepath.Join(r.dir, name+".md")
	c, err := r.loadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", name, concept.ErrConceptNotFound)
		}
		return nil, err
	}
	return c, nil
}

// LoadAll returns every concept in the store, keyed by name.
func (r *ConceptRepository) LoadAll(ctx context.Context) (map[string]*models.Concept, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*models.Concept{}, nil
		}
		return nil, fmt.Errorf("failed to read concepts dir: %w", err)
	}

	concepts := make(map[string]*models.Concept)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		c, err := r.loadFile(filepath.Join(r.dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		concepts[c.Name] = c
	}

	return concepts, nil
}

// loadFile parses one concept document. A document without a front
// matter fence is all body, named after its file. A fence that fails to
// parse is a MalformedConceptError; the store does not attempt partial
// recovery.
func (r *ConceptRepository) loadFile(path string) (*models.Concept, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	stem := strings.TrimSuffix(filepath.Base(path), ".md")
	c := &models.Concept{
		Name:     stem,
		FilePath: path,
	}

	header, body, err := splitFrontMatter(data)
	if err != nil {
		return nil, &concept.MalformedConceptError{Name: stem, Err: err}
	}

	if header != nil {
		var h conceptHeader
		if err := yaml.Unmarshal(header, &h); err != nil {
			return nil, &concept.MalformedConceptError{Name: stem, Err: err}
		}
		if h.Name != "" {
			c.Name = h.Name
		}
		c.References = h.References
	}
	c.Body = string(body)

	return c, nil
}

var fence = []byte("---\n")

// splitFrontMatter separates the YAML header from the body. A nil
// header means the document has no front matter. An opening fence
// without a closing fence is an error.
func splitFrontMatter(data []byte) (header, body []byte, err error) {
	normalized := bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(normalized, fence) {
		return nil, normalized, nil
	}

	rest := normalized[len(fence):]
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return nil, nil, fmt.Errorf("unterminated front matter fence")
	}

	header = rest[:end]
	body = rest[end+len("\n---"):]
	body = bytes.TrimPrefix(body, []byte("\n"))
	return header, body, nil
}

// Ensure ConceptRepository implements the interface
var _ secondary.ConceptRepository = (*ConceptRepository)(nil)
