// Package recondo reconciles two heterogeneous collections of semi-structured
// records that represent the same logical entities under different schemas.
// Raw nested records are projected into canonical flat records through
// declarative field-mapping profiles, indexed by a composite identity key,
// and compared with per-field tolerance policies. The result reports where
// the sides agree, where they disagree, and which records exist on only one
// side, together with run metrics.
package recondo

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/recondo/recondo/pkg/errors"
	"github.com/recondo/recondo/pkg/fields"
	"github.com/recondo/recondo/pkg/logging"
	"github.com/recondo/recondo/pkg/metrics"
	"github.com/recondo/recondo/pkg/reconcile"
)

// Client runs reconciliations with a fixed, validated configuration.
// Configuration problems are detected here, before any data is touched;
// nothing is silently coerced at run time.
type Client struct {
	cfg      *config
	log      *zerolog.Logger
	policies *reconcile.Policies
	tracker  *metrics.Tracker
}

// New creates a Client from options. It fails fast on configuration
// errors: missing profiles or key fields, key fields absent from a
// profile's output vocabulary, conflicting field kinds between the two
// profiles, a tolerance policy attached to a field of the wrong kind, or
// incremental mode without a state path.
func New(opts ...Option) (*Client, error) {
	cfg := &config{shards: 1}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.profileA == nil || cfg.profileB == nil {
		return nil, errors.NewConfigError("client", "both side profiles are required", nil)
	}
	if len(cfg.keyFields) == 0 {
		return nil, errors.NewConfigError("client", "at least one key field is required", nil)
	}
	if cfg.incremental && cfg.statePath == "" {
		return nil, errors.NewConfigError("client",
			"incremental mode requires a state path to establish the cutoff", nil)
	}

	kinds, err := mergedFieldKinds(cfg)
	if err != nil {
		return nil, err
	}
	for _, field := range cfg.keyFields {
		if _, okA := cfg.profileA.FieldKinds()[field]; !okA {
			return nil, errors.NewConfigError("client",
				fmt.Sprintf("key field %q is not produced by profile %s", field, cfg.profileA.Source), nil)
		}
		if _, okB := cfg.profileB.FieldKinds()[field]; !okB {
			return nil, errors.NewConfigError("client",
				fmt.Sprintf("key field %q is not produced by profile %s", field, cfg.profileB.Source), nil)
		}
	}

	policies, err := effectivePolicies(cfg, kinds)
	if err != nil {
		return nil, err
	}

	log := cfg.logger
	if log == nil {
		log = logging.Default()
	}

	trackerOpts := []metrics.TrackerOption{
		metrics.WithThreshold(cfg.threshold),
		metrics.WithStatePath(cfg.statePath),
	}
	if cfg.notifier != nil {
		trackerOpts = append(trackerOpts, metrics.WithNotifier(cfg.notifier))
	}

	return &Client{
		cfg:      cfg,
		log:      log,
		policies: policies,
		tracker:  metrics.NewTracker(log, trackerOpts...),
	}, nil
}

// mergedFieldKinds merges the two profiles' field kinds. A field emitted by
// both profiles with different kinds breaks the shared-vocabulary
// invariant, so it is a configuration error.
func mergedFieldKinds(cfg *config) (map[string]fields.Kind, error) {
	kinds := cfg.profileA.FieldKinds()
	merged := make(map[string]fields.Kind, len(kinds))
	for f, k := range kinds {
		merged[f] = k
	}
	for f, k := range cfg.profileB.FieldKinds() {
		if prev, shared := merged[f]; shared && prev != k {
			return nil, errors.NewConfigError("client",
				fmt.Sprintf("field %q has kind %s in profile %s but %s in profile %s",
					f, prev, cfg.profileA.Source, k, cfg.profileB.Source), nil)
		}
		merged[f] = k
	}
	return merged, nil
}

// effectivePolicies builds the per-field policy set: explicit overrides
// first, then the global numeric/time tolerances expanded onto every
// kind-compatible non-key field without an override. The engine default
// stays Exact for everything else.
func effectivePolicies(cfg *config, kinds map[string]fields.Kind) (*reconcile.Policies, error) {
	ps := reconcile.NewPolicies()
	if cfg.policies != nil {
		for _, field := range cfg.policies.Overridden() {
			ps.Set(field, cfg.policies.For(field))
		}
	}

	keySet := make(map[string]bool, len(cfg.keyFields))
	for _, f := range cfg.keyFields {
		keySet[f] = true
	}

	overridden := make(map[string]bool)
	for _, f := range ps.Overridden() {
		overridden[f] = true
	}

	for field, kind := range kinds {
		if keySet[field] || overridden[field] {
			continue
		}
		switch {
		case cfg.numericTolerance != nil && kind.Numeric():
			ps.Set(field, reconcile.NumericTolerance(*cfg.numericTolerance))
		case cfg.timeTolerance != nil && kind == fields.KindTime:
			ps.Set(field, reconcile.TimeTolerance(*cfg.timeTolerance))
		}
	}

	if err := ps.Validate(kinds); err != nil {
		return nil, err
	}
	return ps, nil
}
