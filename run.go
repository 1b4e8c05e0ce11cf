package recondo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/recondo/recondo/pkg/errors"
	"github.com/recondo/recondo/pkg/index"
	"github.com/recondo/recondo/pkg/logging"
	"github.com/recondo/recondo/pkg/metrics"
	"github.com/recondo/recondo/pkg/reconcile"
	"github.com/recondo/recondo/pkg/records"
)

// validationLogLimit caps how many validation errors are logged per side.
const validationLogLimit = 5

// Outcome bundles everything one reconciliation run produced.
type Outcome struct {
	Result  *reconcile.Result
	Metrics metrics.RunMetrics

	// StatsA and StatsB are the projection statistics per side.
	StatsA records.Stats
	StatsB records.Stats
}

// Run executes the full pipeline on two decoded input sides: validate,
// project, optionally filter by the incremental cutoff, index, reconcile,
// and track. Per-record input problems are absorbed into counters; only
// configuration, validation, and resource failures return an error. When
// persisting RunState fails, the computed Outcome is still returned
// alongside the error.
func (c *Client) Run(ctx context.Context, rawA, rawB []any) (*Outcome, error) {
	started := time.Now()
	log := logging.FromContext(ctx)
	if log == logging.Default() && c.log != nil {
		log = c.log
	}

	if err := c.validateSide(log, c.cfg.profileA.Source, rawA); err != nil {
		return nil, err
	}
	if err := c.validateSide(log, c.cfg.profileB.Source, rawB); err != nil {
		return nil, err
	}

	projector := records.NewProjector(log)
	recsA, statsA := projector.ProjectAll(rawA, c.cfg.profileA)
	recsB, statsB := projector.ProjectAll(rawB, c.cfg.profileB)

	if c.cfg.incremental {
		var err error
		recsA, recsB, err = c.applyCutoff(log, recsA, recsB)
		if err != nil {
			return nil, err
		}
	}

	idxA := index.New(c.cfg.profileA.Source, recsA, c.cfg.keyFields)
	idxB := index.New(c.cfg.profileB.Source, recsB, c.cfg.keyFields)

	result, err := reconcile.ReconcileSharded(idxA, idxB, c.policies, c.cfg.shards)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		Result: result,
		StatsA: statsA,
		StatsB: statsB,
	}
	m, err := c.tracker.Track(result, len(recsA), len(recsB), started)
	outcome.Metrics = m
	if err != nil {
		// Persistence failure is the run's failure, but the computed
		// result is never discarded.
		return outcome, err
	}
	return outcome, nil
}

// validateSide rejects an input side whose shape does not validate. Only
// the first few errors are logged; the rest are counted.
func (c *Client) validateSide(log *zerolog.Logger, source string, raw []any) error {
	if c.cfg.validator == nil {
		return nil
	}

	errs := c.cfg.validator.Validate(raw)
	if len(errs) == 0 {
		return nil
	}

	for i, err := range errs {
		if i == validationLogLimit {
			break
		}
		log.Error().Str("source", source).Err(err).Msg("input validation error")
	}
	return errors.NewValidationError(source, "",
		fmt.Sprintf("%d schema validation errors", len(errs)))
}

// applyCutoff filters both sides down to records modified since the prior
// run. A first run (no persisted state) compares everything.
func (c *Client) applyCutoff(log *zerolog.Logger, recsA, recsB []*records.Record) ([]*records.Record, []*records.Record, error) {
	prior, err := c.tracker.PriorState()
	if err != nil {
		return nil, nil, err
	}
	if prior == nil {
		log.Info().Msg("incremental mode: no prior run state, comparing everything")
		return recsA, recsB, nil
	}

	cutoff := prior.Timestamp
	filteredA, excludedA := metrics.FilterSince(recsA, c.cfg.modifiedField, cutoff)
	filteredB, excludedB := metrics.FilterSince(recsB, c.cfg.modifiedField, cutoff)
	log.Info().
		Time("cutoff", cutoff).
		Int("excluded_a", excludedA).
		Int("excluded_b", excludedB).
		Msg("incremental mode: filtered unchanged records")
	return filteredA, filteredB, nil
}
