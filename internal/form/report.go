// File: internal/form/report.go
package form

import (
	"fmt"
	"os"
	"time"
)

// Status classifies what happened to one field during a fill run.
type Status string

const (
	StatusFilled  Status = "filled"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Entry is the outcome of one catalog field.
type Entry struct {
	Label  string `json:"label"`
	Kind   Kind   `json:"kind"`
	Value  string `json:"value"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Report summarizes a fill run.
type Report struct {
	RunID      string    `json:"run_id"`
	FormURL    string    `json:"form_url"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Entries    []Entry   `json:"entries"`
}

// Counts tallies entries by status.
func (r *Report) Counts() (filled, skipped, failed int) {
	for _, e := range r.Entries {
		switch e.Status {
		case StatusFilled:
			filled++
		case StatusSkipped:
			skipped++
		case StatusFailed:
			failed++
		}
	}
	return filled, skipped, failed
}

// WriteFile serializes the report as indented JSON.
func (r *Report) WriteFile(path string) error {
	data, err := jsonAPI.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize fill report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write fill report to %q: %w", path, err)
	}
	return nil
}
