package harness

import (
	"encoding/json"

	"github.com/roach88/curvemigrate/internal/migrate"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation matched.
	Pass bool `json:"pass"`

	// Errors contains expectation mismatches. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Report is the migration report.
	Report *migrate.Report `json:"report"`

	// Snapshot is the deterministic view of the repository after the run.
	Snapshot *Snapshot `json:"snapshot"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError adds an expectation mismatch and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// SnapshotRecord is one stored target record with its canonical payload, so
// golden files pin node, slot and role contents and not just names.
type SnapshotRecord struct {
	Name    string          `json:"name"`
	Version int             `json:"version"`
	Payload json.RawMessage `json:"payload"`
}

// Snapshot captures the target records of a run. It is compared with
// golden files in canonical JSON form.
type Snapshot struct {
	Scenario string                      `json:"scenario"`
	RunID    string                      `json:"run_id"`
	Records  map[string][]SnapshotRecord `json:"records"`
	Summary  migrate.Summary             `json:"summary"`
	Problems []string                    `json:"problems,omitempty"`
}
