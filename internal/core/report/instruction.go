package report

import "fmt"

// Instruction builds the report directive appended to every task
// prompt. The template body shows the agent the exact shape expected
// between the markers.
func Instruction(templateBody string) string {
	return fmt.Sprintf(`When the task is complete, end your response with a report delimited
exactly as follows, with every template variable filled in:

%s
%s
%s

Keep the section headings verbatim. Use "- " bullet lists for artifacts,
issues and next steps; write "none" if a section has nothing to report.`,
		BeginMarker, templateBody, EndMarker)
}
