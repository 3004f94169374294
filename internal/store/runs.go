package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Run statuses.
const (
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Run is one ingestion of one dataset.
type Run struct {
	ID         string
	Dataset    string
	Status     string
	StartedAt  time.Time
	FinishedAt *time.Time
	Summary    string // JSON
}

// BeginRun records the start of an ingestion run.
func (s *Store) BeginRun(ctx context.Context, id, dataset string, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingestion_runs (id, dataset, status, started_at)
		VALUES (?, ?, ?, ?)
	`, id, dataset, RunRunning, startedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// FinishRun records the outcome of an ingestion run.
func (s *Store) FinishRun(ctx context.Context, id, status, summary string, finishedAt time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE ingestion_runs SET status = ?, summary = ?, finished_at = ?
		WHERE id = ?
	`, status, summary, finishedAt.UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetRun returns a recorded run.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	r := Run{}
	var started string
	var finished sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, dataset, status, started_at, finished_at, summary
		FROM ingestion_runs WHERE id = ?
	`, id).Scan(&r.ID, &r.Dataset, &r.Status, &started, &finished, &r.Summary)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("get run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}

	r.StartedAt, err = time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: parse started_at: %w", id, err)
	}
	if finished.Valid {
		t, err := time.Parse(time.RFC3339Nano, finished.String)
		if err != nil {
			return Run{}, fmt.Errorf("get run %s: parse finished_at: %w", id, err)
		}
		r.FinishedAt = &t
	}
	return r, nil
}
