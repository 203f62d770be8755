package models

import "time"

// Report is the structured record extracted from an agent's output at
// finalize time.
type Report struct {
	TaskID      string
	Status      string
	Template    string
	Summary     string
	Artifacts   []string
	Issues      []string
	NextSteps   []string
	GeneratedAt time.Time
}
