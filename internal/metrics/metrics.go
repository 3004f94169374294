// Package metrics exports ingestion counters in the Prometheus format.
//
// A Recorder observes finished runs. shingest is a batch tool, so the
// counters are written to a node_exporter textfile after each run rather
// than served over HTTP.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/supaharris/shingest/internal/ingest"
)

const namespace = "shingest"

// Recorder counts dataset runs. It is safe for concurrent use.
type Recorder struct {
	registry *prometheus.Registry

	runs                *prometheus.CounterVec
	rowsParsed          *prometheus.CounterVec
	rowsSkipped         *prometheus.CounterVec
	valuesMissing       *prometheus.CounterVec
	objectsCreated      *prometheus.CounterVec
	objectsSkipped      *prometheus.CounterVec
	observationsCreated *prometheus.CounterVec
	observationsDeleted *prometheus.CounterVec
	warnings            *prometheus.CounterVec
	duration            *prometheus.HistogramVec
	lastSuccess         *prometheus.GaugeVec
}

var _ ingest.Observer = (*Recorder)(nil)

// NewRecorder returns a Recorder with its own registry.
func NewRecorder() *Recorder {
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, append([]string{"dataset"}, labels...))
	}

	r := &Recorder{
		registry:            prometheus.NewRegistry(),
		runs:                counter("runs_total", "Dataset runs by final status.", "status"),
		rowsParsed:          counter("rows_parsed_total", "Source rows parsed."),
		rowsSkipped:         counter("rows_skipped_total", "Malformed source rows skipped."),
		valuesMissing:       counter("values_missing_total", "Mapped cells holding a missing-value placeholder."),
		objectsCreated:      counter("objects_created_total", "Astro objects created for unmatched designations."),
		objectsSkipped:      counter("objects_unresolved_total", "Designations left unresolved and skipped."),
		observationsCreated: counter("observations_created_total", "Observations inserted."),
		observationsDeleted: counter("observations_deleted_total", "Observations removed before re-ingestion."),
		warnings:            counter("warnings_total", "Run warnings, including failed reference scrapes."),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of dataset runs.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"dataset"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Finish time of the last successful run.",
		}, []string{"dataset"}),
	}

	r.registry.MustRegister(
		r.runs, r.rowsParsed, r.rowsSkipped, r.valuesMissing,
		r.objectsCreated, r.objectsSkipped,
		r.observationsCreated, r.observationsDeleted,
		r.warnings, r.duration, r.lastSuccess,
	)
	return r
}

// ObserveRun adds a finished run to the counters.
func (r *Recorder) ObserveRun(s *ingest.Summary) {
	ds := s.Dataset
	r.runs.WithLabelValues(ds, s.Status).Inc()
	r.rowsParsed.WithLabelValues(ds).Add(float64(s.RowsParsed))
	r.rowsSkipped.WithLabelValues(ds).Add(float64(s.RowsSkipped))
	r.valuesMissing.WithLabelValues(ds).Add(float64(s.ValuesMissing))
	r.objectsCreated.WithLabelValues(ds).Add(float64(s.ObjectsCreated))
	r.objectsSkipped.WithLabelValues(ds).Add(float64(s.ObjectsSkipped))
	r.observationsCreated.WithLabelValues(ds).Add(float64(s.ObservationsCreated))
	r.observationsDeleted.WithLabelValues(ds).Add(float64(s.ObservationsDeleted))
	r.warnings.WithLabelValues(ds).Add(float64(len(s.Warnings)))
	r.duration.WithLabelValues(ds).Observe(s.Duration().Seconds())
	if !s.Failed() && !s.FinishedAt.IsZero() {
		r.lastSuccess.WithLabelValues(ds).Set(float64(s.FinishedAt.Unix()))
	}
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes every metric to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
