// Package report contains the pure logic for extracting structured
// task reports from agent output.
package report

import (
	"strings"

	"github.com/example/ctx/internal/models"
)

// Markers delimiting the report block inside agent output. The agent is
// instructed to emit its report between them; everything outside is
// free-form work log.
const (
	BeginMarker = "### BEGIN REPORT"
	EndMarker   = "### END REPORT"
)

// Section headings recognized inside a report block.
const (
	summaryHeading   = "## Summary"
	artifactsHeading = "## Modified Artifacts"
	issuesHeading    = "## Issues"
	nextStepsHeading = "## Next Steps"
)

// ExtractBlock returns the text between the report markers, and whether
// a complete block was found.
func ExtractBlock(output string) (string, bool) {
	start := strings.Index(output, BeginMarker)
	if start < 0 {
		return "", false
	}
	rest := output[start+len(BeginMarker):]
	end := strings.Index(rest, EndMarker)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// Parse extracts a structured report from raw agent output. The second
// return value reports whether a well-formed report block was present:
// both markers found and a non-empty summary section. The caller fills
// in TaskID, Status, Template and GeneratedAt.
func Parse(output string) (*models.Report, bool) {
	block, ok := ExtractBlock(output)
	if !ok {
		return nil, false
	}

	r := &models.Report{}
	sections := splitSections(block)
	r.Summary = strings.TrimSpace(sections[summaryHeading])
	r.Artifacts = parseList(sections[artifactsHeading])
	r.Issues = parseList(sections[issuesHeading])
	r.NextSteps = parseList(sections[nextStepsHeading])

	if r.Summary == "" {
		return nil, false
	}
	return r, true
}

// splitSections cuts a report block into heading -> body chunks.
func splitSections(block string) map[string]string {
	sections := make(map[string]string)
	current := ""
	var body strings.Builder

	flush := func() {
		if current != "" {
			sections[current] = body.String()
		}
		body.Reset()
	}

	for _, line := range strings.Split(block, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "## ") {
			flush()
			current = trimmed
			continue
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	flush()

	return sections
}

// parseList turns a section body into list items. Bulleted lines become
// one item each; placeholder values like "none" are dropped.
func parseList(body string) []string {
	var items []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		trimmed = strings.TrimPrefix(trimmed, "- ")
		trimmed = strings.TrimPrefix(trimmed, "* ")
		trimmed = strings.TrimSpace(trimmed)
		if trimmed == "" || trimmed == "-" || trimmed == "*" {
			continue
		}
		if lower := strings.ToLower(trimmed); lower == "none" || lower == "n/a" {
			continue
		}
		items = append(items, trimmed)
	}
	return items
}
