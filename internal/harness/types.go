package harness

import (
	"github.com/supaharris/shingest/internal/ingest"
	"github.com/supaharris/shingest/internal/store"
)

// RunResult is the outcome of one scenario run.
type RunResult struct {
	Summary *ingest.Summary
	Err     error
	Counts  store.Counts
}

// Result is the outcome of a scenario.
type Result struct {
	// Pass indicates overall test success.
	// True if every expectation matched.
	Pass bool

	// Runs holds one entry per executed run, in order.
	Runs []RunResult

	// Errors contains expectation mismatches.
	// Empty if Pass is true.
	Errors []string
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
