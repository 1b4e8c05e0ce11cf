package recondo

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/recondo/recondo/pkg/errors"
	"github.com/recondo/recondo/pkg/metrics"
	"github.com/recondo/recondo/pkg/profile"
	"github.com/recondo/recondo/pkg/reconcile"
)

// Validator checks a decoded input tree and reports everything wrong with
// it. A non-empty error list rejects the input side before normalization.
type Validator interface {
	Validate(tree any) []error
}

// config holds the reconciliation run configuration assembled from options.
type config struct {
	profileA *profile.Profile
	profileB *profile.Profile

	keyFields []string
	policies  *reconcile.Policies

	numericTolerance *float64
	timeTolerance    *time.Duration

	threshold     int
	incremental   bool
	modifiedField string
	statePath     string
	shards        int

	validator Validator
	notifier  metrics.Notifier
	logger    *zerolog.Logger
}

// Option configures a Client.
type Option func(*config) error

// WithProfiles sets the field-mapping profiles for the two sides.
func WithProfiles(a, b *profile.Profile) Option {
	return func(c *config) error {
		c.profileA = a
		c.profileB = b
		return nil
	}
}

// WithProfileFiles loads the two profiles from YAML files.
func WithProfileFiles(pathA, pathB string) Option {
	return func(c *config) error {
		a, err := profile.Load(pathA)
		if err != nil {
			return err
		}
		b, err := profile.Load(pathB)
		if err != nil {
			return err
		}
		c.profileA = a
		c.profileB = b
		return nil
	}
}

// WithKeyFields sets the ordered canonical fields that form the identity
// key.
func WithKeyFields(fields ...string) Option {
	return func(c *config) error {
		c.keyFields = append([]string(nil), fields...)
		return nil
	}
}

// WithPolicies replaces the comparison policy set.
func WithPolicies(ps *reconcile.Policies) Option {
	return func(c *config) error {
		c.policies = ps
		return nil
	}
}

// WithPolicy attaches a comparison policy to one field.
func WithPolicy(field string, p reconcile.Policy) Option {
	return func(c *config) error {
		if c.policies == nil {
			c.policies = reconcile.NewPolicies()
		}
		c.policies.Set(field, p)
		return nil
	}
}

// WithNumericTolerance applies a numeric tolerance to every float-typed
// comparable field that has no explicit policy.
func WithNumericTolerance(epsilon float64) Option {
	return func(c *config) error {
		if epsilon < 0 {
			return errors.NewConfigError("options", "numeric tolerance must be >= 0", nil)
		}
		c.numericTolerance = &epsilon
		return nil
	}
}

// WithTimeTolerance applies a temporal tolerance to every timestamp-typed
// comparable field that has no explicit policy.
func WithTimeTolerance(delta time.Duration) Option {
	return func(c *config) error {
		if delta < 0 {
			return errors.NewConfigError("options", "time tolerance must be >= 0", nil)
		}
		c.timeTolerance = &delta
		return nil
	}
}

// WithNotificationThreshold sets the difference count above which the
// notification collaborator fires.
func WithNotificationThreshold(n int) Option {
	return func(c *config) error {
		c.threshold = n
		return nil
	}
}

// WithIncremental enables incremental mode. Records whose modified-field
// timestamp is not newer than the prior run's timestamp are excluded from
// comparison.
func WithIncremental(modifiedField string) Option {
	return func(c *config) error {
		if modifiedField == "" {
			return errors.NewConfigError("options", "incremental mode needs a modification-timestamp field", nil)
		}
		c.incremental = true
		c.modifiedField = modifiedField
		return nil
	}
}

// WithStatePath sets where RunState is persisted between runs.
func WithStatePath(path string) Option {
	return func(c *config) error {
		c.statePath = path
		return nil
	}
}

// WithShards splits the key space into n concurrently reconciled shards.
func WithShards(n int) Option {
	return func(c *config) error {
		if n < 1 {
			return errors.NewConfigError("options", "shard count must be >= 1", nil)
		}
		c.shards = n
		return nil
	}
}

// WithValidator sets the input validator applied to both sides before
// normalization.
func WithValidator(v Validator) Option {
	return func(c *config) error {
		c.validator = v
		return nil
	}
}

// WithNotifier sets the notification sink.
func WithNotifier(n metrics.Notifier) Option {
	return func(c *config) error {
		c.notifier = n
		return nil
	}
}

// WithLogger sets the logger used by all pipeline stages.
func WithLogger(log *zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = log
		return nil
	}
}
