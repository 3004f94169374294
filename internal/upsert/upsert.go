// Package upsert writes Observations with get-or-create semantics.
//
// An Observation is keyed by (object, parameter, reference). Upserting a
// key that already exists returns the stored record untouched: values are
// never updated in place, so re-running an ingestion is always safe.
// Replacing a reference's observations is the caller's job and must be
// done with an explicit delete before the upsert pass.
package upsert

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/supaharris/shingest/internal/catalogue"
)

// ErrInvalidObservation is returned for an observation that cannot be
// keyed or has a non-finite value.
var ErrInvalidObservation = errors.New("invalid observation")

// Store is the storage the engine writes through.
type Store interface {
	GetOrCreateObservation(ctx context.Context, o catalogue.Observation) (catalogue.Observation, bool, error)
	CreateObservations(ctx context.Context, obs []catalogue.Observation) (int64, error)
}

// Engine upserts observations.
type Engine struct {
	store  Store
	logger *zap.Logger
}

// New returns an Engine writing to s.
func New(s Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: s, logger: logger}
}

// Upsert ensures exactly one Observation exists for (obj, param, ref).
// created is false when the key was already present; the returned record
// then carries the stored values, not value.
func (e *Engine) Upsert(
	ctx context.Context,
	obj catalogue.AstroObject,
	param catalogue.Parameter,
	ref catalogue.Reference,
	value float64,
	sigmaUp, sigmaDown *float64,
) (catalogue.Observation, bool, error) {
	o := catalogue.Observation{
		ObjectID:    obj.ID,
		ParameterID: param.ID,
		ReferenceID: ref.ID,
		Value:       value,
		SigmaUp:     sigmaUp,
		SigmaDown:   sigmaDown,
	}
	if err := Validate(o); err != nil {
		return catalogue.Observation{}, false, fmt.Errorf("upsert %s/%s: %w", obj.Name, param.Name, err)
	}

	out, created, err := e.store.GetOrCreateObservation(ctx, o)
	if err != nil {
		return catalogue.Observation{}, false, fmt.Errorf("upsert %s/%s: %w", obj.Name, param.Name, err)
	}
	if !created && out.Value != value {
		e.logger.Debug("observation exists with a different value",
			zap.String("object", obj.Name),
			zap.String("parameter", param.Name),
			zap.Int64("reference", ref.ID),
			zap.Float64("stored", out.Value),
			zap.Float64("ignored", value))
	}
	return out, created, nil
}

// UpsertAll bulk-creates obs, skipping keys that already exist in storage
// or earlier in obs. It returns the number of observations created.
func (e *Engine) UpsertAll(ctx context.Context, obs []catalogue.Observation) (int64, error) {
	batch, err := e.Batch(obs)
	if err != nil {
		return 0, fmt.Errorf("upsert all: %w", err)
	}
	n, err := e.store.CreateObservations(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("upsert all: %w", err)
	}
	return n, nil
}

// Batch validates obs and drops repeated keys, keeping the first. Callers
// that write the batch themselves, such as a replace-on-reingest swap,
// use it to get the same checks as UpsertAll.
func (e *Engine) Batch(obs []catalogue.Observation) ([]catalogue.Observation, error) {
	batch := make([]catalogue.Observation, 0, len(obs))
	seen := make(map[catalogue.Key]bool, len(obs))
	for _, o := range obs {
		if err := Validate(o); err != nil {
			return nil, err
		}
		if seen[o.Key()] {
			e.logger.Debug("duplicate key in batch",
				zap.Int64("object", int64(o.ObjectID)),
				zap.Int64("parameter", o.ParameterID),
				zap.Int64("reference", o.ReferenceID))
			continue
		}
		seen[o.Key()] = true
		batch = append(batch, o)
	}
	return batch, nil
}

// Validate checks that o has a complete key and finite numbers.
func Validate(o catalogue.Observation) error {
	switch {
	case o.ObjectID <= 0:
		return fmt.Errorf("%w: no object", ErrInvalidObservation)
	case o.ParameterID <= 0:
		return fmt.Errorf("%w: no parameter", ErrInvalidObservation)
	case o.ReferenceID <= 0:
		return fmt.Errorf("%w: no reference", ErrInvalidObservation)
	case !finite(o.Value):
		return fmt.Errorf("%w: value %v", ErrInvalidObservation, o.Value)
	case o.SigmaUp != nil && !finite(*o.SigmaUp):
		return fmt.Errorf("%w: sigma_up %v", ErrInvalidObservation, *o.SigmaUp)
	case o.SigmaDown != nil && !finite(*o.SigmaDown):
		return fmt.Errorf("%w: sigma_down %v", ErrInvalidObservation, *o.SigmaDown)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
