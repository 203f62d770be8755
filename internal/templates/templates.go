// Package templates carries the embedded report templates and the
// template contract: each named template declares the variables a
// rendering must supply.
package templates

import (
	"embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed reports/*.md
var reportTemplates embed.FS

// ErrUnknownTemplate indicates a template name outside the declared
// contract. This is an input error, never a startup failure.
type ErrUnknownTemplate struct {
	Name string
}

func (e *ErrUnknownTemplate) Error() string {
	return fmt.Sprintf("unknown report template %q (available: %s)",
		e.Name, strings.Join(Names(), ", "))
}

// contracts maps template name to the variable set its rendering
// requires.
var contracts = map[string][]string{
	"default": {"task_id", "summary", "artifacts", "issues", "next_steps"},
	"minimal": {"task_id", "summary"},
}

// Default is the template used when a task does not request one.
const Default = "default"

// Names lists the declared template names, sorted.
func Names() []string {
	names := make([]string, 0, len(contracts))
	for name := range contracts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Required returns the variable set a template's rendering must supply.
func Required(name string) ([]string, error) {
	vars, ok := contracts[name]
	if !ok {
		return nil, &ErrUnknownTemplate{Name: name}
	}
	return vars, nil
}

// Get returns the body of a named template.
func Get(name string) (string, error) {
	if _, ok := contracts[name]; !ok {
		return "", &ErrUnknownTemplate{Name: name}
	}
	content, err := reportTemplates.ReadFile("reports/" + name + ".md")
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", name, err)
	}
	return string(content), nil
}

// Render substitutes the flat variable map into a named template.
// Every required variable must be present in vars; extra keys are
// ignored. Substitution is plain {{var}} string replacement.
func Render(name string, vars map[string]string) (string, error) {
	body, err := Get(name)
	if err != nil {
		return "", err
	}

	required, _ := contracts[name]
	for _, key := range required {
		if _, ok := vars[key]; !ok {
			return "", fmt.Errorf("template %s: missing required variable %q", name, key)
		}
	}

	for key, value := range vars {
		body = strings.ReplaceAll(body, "{{"+key+"}}", value)
	}
	return body, nil
}
