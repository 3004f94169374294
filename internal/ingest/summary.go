package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/supaharris/shingest/internal/store"
)

// Run statuses, as recorded in the ingestion_runs table.
const (
	StatusSucceeded = store.RunSucceeded
	StatusFailed    = store.RunFailed
)

// SourceSummary describes one file read by a run.
type SourceSummary struct {
	Source      string `json:"source"`
	Digest      string `json:"digest"`
	RowsParsed  int    `json:"rows_parsed"`
	RowsSkipped int    `json:"rows_skipped"`
}

// Summary is the outcome of one dataset run.
type Summary struct {
	RunID      string    `json:"run_id"`
	Dataset    string    `json:"dataset"`
	Status     string    `json:"status"`
	Stage      Stage     `json:"stage,omitempty"` // stage that failed
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Reference         string `json:"reference,omitempty"`
	ReferenceURL      string `json:"reference_url,omitempty"`
	ReferencesCreated int    `json:"references_created"`
	ParametersCreated int    `json:"parameters_created"`

	Sources       []SourceSummary `json:"sources,omitempty"`
	RowsParsed    int             `json:"rows_parsed"`
	RowsSkipped   int             `json:"rows_skipped"`
	ValuesMissing int             `json:"values_missing"`
	RowsExcluded  int             `json:"rows_excluded"`

	ObjectsResolved int `json:"objects_resolved"`
	ObjectsCreated  int `json:"objects_created"`
	ObjectsSkipped  int `json:"objects_skipped"`
	FuzzyAccepted   int `json:"fuzzy_accepted"`

	ObservationsCreated  int64 `json:"observations_created"`
	ObservationsExisting int64 `json:"observations_existing"`
	ObservationsDeleted  int64 `json:"observations_deleted"`
	ProfilesCreated      int64 `json:"profiles_created"`
	ProfilesDeleted      int64 `json:"profiles_deleted"`

	Warnings []string `json:"warnings,omitempty"`
}

// Duration is the wall time of the run.
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Failed reports whether the run stopped early.
func (s *Summary) Failed() bool {
	return s.Status == StatusFailed
}

func (s *Summary) warn(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

// String renders the summary for a terminal. Timings are left out so the
// text is stable across runs.
func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dataset %s: %s\n", s.Dataset, s.Status)
	fmt.Fprintf(&b, "  run:            %s\n", s.RunID)
	if s.Error != "" {
		fmt.Fprintf(&b, "  failed at:      %s\n", s.Stage)
		fmt.Fprintf(&b, "  error:          %s\n", s.Error)
	}
	if s.ReferenceURL != "" {
		fmt.Fprintf(&b, "  reference:      %s <%s>\n", s.Reference, s.ReferenceURL)
	}
	fmt.Fprintf(&b, "  references:     %d created\n", s.ReferencesCreated)
	fmt.Fprintf(&b, "  parameters:     %d created\n", s.ParametersCreated)
	for _, src := range s.Sources {
		fmt.Fprintf(&b, "  source:         %s (%d rows, %d skipped, %s)\n",
			src.Source, src.RowsParsed, src.RowsSkipped, shortDigest(src.Digest))
	}
	fmt.Fprintf(&b, "  rows:           %d parsed, %d skipped, %d values missing\n",
		s.RowsParsed, s.RowsSkipped, s.ValuesMissing)
	if s.RowsExcluded > 0 {
		fmt.Fprintf(&b, "  excluded:       %d rows\n", s.RowsExcluded)
	}
	fmt.Fprintf(&b, "  objects:        %d resolved, %d created, %d skipped, %d fuzzy accepted\n",
		s.ObjectsResolved, s.ObjectsCreated, s.ObjectsSkipped, s.FuzzyAccepted)
	fmt.Fprintf(&b, "  observations:   %d created, %d existing, %d deleted\n",
		s.ObservationsCreated, s.ObservationsExisting, s.ObservationsDeleted)
	fmt.Fprintf(&b, "  profiles:       %d created, %d deleted\n", s.ProfilesCreated, s.ProfilesDeleted)
	if len(s.Warnings) > 0 {
		fmt.Fprintf(&b, "  warnings:\n")
		for _, w := range s.Warnings {
			fmt.Fprintf(&b, "    - %s\n", w)
		}
	}
	return b.String()
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
