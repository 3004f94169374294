package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supaharris/shingest/internal/ingest"
)

func summary(status string) *ingest.Summary {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &ingest.Summary{
		Dataset:             "harris_1996ed2010",
		Status:              status,
		StartedAt:           start,
		FinishedAt:          start.Add(3 * time.Second),
		RowsParsed:          157,
		RowsSkipped:         2,
		ValuesMissing:       11,
		ObjectsCreated:      4,
		ObjectsSkipped:      1,
		ObservationsCreated: 3200,
		ObservationsDeleted: 0,
		Warnings:            []string{"scrape failed"},
	}
}

func TestRecorder_ObserveRun(t *testing.T) {
	r := NewRecorder()
	r.ObserveRun(summary(ingest.StatusSucceeded))
	r.ObserveRun(summary(ingest.StatusSucceeded))
	r.ObserveRun(summary(ingest.StatusFailed))

	ds := "harris_1996ed2010"
	assert.Equal(t, 2.0, testutil.ToFloat64(r.runs.WithLabelValues(ds, ingest.StatusSucceeded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues(ds, ingest.StatusFailed)))
	assert.Equal(t, 471.0, testutil.ToFloat64(r.rowsParsed.WithLabelValues(ds)))
	assert.Equal(t, 6.0, testutil.ToFloat64(r.rowsSkipped.WithLabelValues(ds)))
	assert.Equal(t, 33.0, testutil.ToFloat64(r.valuesMissing.WithLabelValues(ds)))
	assert.Equal(t, 12.0, testutil.ToFloat64(r.objectsCreated.WithLabelValues(ds)))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.objectsSkipped.WithLabelValues(ds)))
	assert.Equal(t, 9600.0, testutil.ToFloat64(r.observationsCreated.WithLabelValues(ds)))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.warnings.WithLabelValues(ds)))

	finished := summary(ingest.StatusSucceeded).FinishedAt
	assert.Equal(t, float64(finished.Unix()), testutil.ToFloat64(r.lastSuccess.WithLabelValues(ds)))
	assert.Equal(t, 1, testutil.CollectAndCount(r.duration))
}

func TestRecorder_FailedRunDoesNotSetLastSuccess(t *testing.T) {
	r := NewRecorder()
	r.ObserveRun(summary(ingest.StatusFailed))

	assert.Equal(t, 0, testutil.CollectAndCount(r.lastSuccess))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveRun(summary(ingest.StatusSucceeded))

	path := filepath.Join(t.TempDir(), "shingest.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `shingest_rows_parsed_total{dataset="harris_1996ed2010"} 157`)
	assert.Contains(t, string(data), `shingest_runs_total{dataset="harris_1996ed2010",status="succeeded"} 1`)
}

func TestRecorder_WriteTextfile_BadPath(t *testing.T) {
	r := NewRecorder()
	err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "shingest.prom"))
	require.Error(t, err)
}
