package runner

import (
	"time"

	"github.com/conveyorci/conveyor/internal/event"
)

// Status is the outcome of a step or of a whole run.
type Status string

const (
	StatusSkipped   Status = "skipped"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// StepResult is the recorded outcome of one step. ExitCode is nil when the
// step never produced an exit status (skipped, or failed before invocation).
type StepResult struct {
	Name     string `json:"name"`
	Status   Status `json:"status"`
	ExitCode *int   `json:"exit_code,omitempty"`
	Output   string `json:"output,omitempty"`
	Error    string `json:"error,omitempty"`
}

// RunReport is the ordered collection of per-step outcomes from one run.
type RunReport struct {
	ID         string       `json:"id"`
	Pipeline   string       `json:"pipeline"`
	Event      event.Event  `json:"event"`
	Status     Status       `json:"status"`
	Steps      []StepResult `json:"steps"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}

// Step returns the result for a named step, if present.
func (r *RunReport) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}
