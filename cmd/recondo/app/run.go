package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/recondo/recondo"
	"github.com/recondo/recondo/internal/canon"
	"github.com/recondo/recondo/internal/report"
	"github.com/recondo/recondo/internal/schema"
	"github.com/recondo/recondo/pkg/errors"
	"github.com/recondo/recondo/pkg/logging"
	"github.com/recondo/recondo/pkg/profile"
)

// NewRunCommand creates the run command, the main entry point of the tool.
func (a *App) NewRunCommand() *cobra.Command {
	cfg := a.config

	cmd := &cobra.Command{
		Use:   "run <file-a> <file-b>",
		Short: "Reconcile two JSON record collections",
		Long: `Reconcile two JSON files of records. Each file is normalized through
its field-mapping profile, indexed by the identity key, and compared
field by field. A report directory is written with a text summary and a
CSV of every value mismatch.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReconciliation(cmd.Context(), args[0], args[1])
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.ProfileA, "profile-a", cfg.ProfileA, "field-mapping profile for side A (YAML)")
	flags.StringVar(&cfg.ProfileB, "profile-b", cfg.ProfileB, "field-mapping profile for side B (YAML)")
	flags.StringSliceVar(&cfg.KeyFields, "key", cfg.KeyFields, "canonical fields forming the identity key")
	flags.Float64Var(&cfg.NumericTolerance, "numeric-tolerance", cfg.NumericTolerance, "numeric tolerance for float fields (negative disables)")
	flags.DurationVar(&cfg.TimeTolerance, "time-tolerance", cfg.TimeTolerance, "temporal tolerance for timestamp fields (negative disables)")
	flags.IntVar(&cfg.NotificationThreshold, "threshold", cfg.NotificationThreshold, "difference count above which a notification fires")
	flags.BoolVar(&cfg.Incremental, "incremental", cfg.Incremental, "only compare records modified since the prior run")
	flags.StringVar(&cfg.ModifiedField, "modified-field", cfg.ModifiedField, "canonical field carrying the modification timestamp")
	flags.StringVar(&cfg.StateFile, "state-file", cfg.StateFile, "path where run state is persisted between runs")
	flags.StringVar(&cfg.ReportDir, "report-dir", cfg.ReportDir, "parent directory for report output")
	flags.IntVar(&cfg.Shards, "shards", cfg.Shards, "number of concurrent reconciliation shards")
	flags.BoolVar(&cfg.Canonicalize, "canonicalize", cfg.Canonicalize, "sort keys of the input files with jq before parsing")

	_ = cmd.MarkFlagRequired("profile-a")
	_ = cmd.MarkFlagRequired("profile-b")

	return cmd
}

// runReconciliation wires the configuration into a client and executes one
// run end to end: read, reconcile, report.
func (a *App) runReconciliation(ctx context.Context, pathA, pathB string) error {
	cfg := a.config
	log := a.logger
	ctx = logging.WithLogger(ctx, log)

	profileA, err := profile.Load(cfg.ProfileA)
	if err != nil {
		return err
	}
	profileB, err := profile.Load(cfg.ProfileB)
	if err != nil {
		return err
	}

	rawA, err := a.readInput(ctx, pathA)
	if err != nil {
		return err
	}
	rawB, err := a.readInput(ctx, pathB)
	if err != nil {
		return err
	}

	// Every input side must be a flat list of record objects; anything
	// deeper is the profiles' concern.
	inputShape := &schema.Shape{
		Kind:  schema.Array,
		Items: &schema.Shape{Kind: schema.Object},
	}

	opts := []recondo.Option{
		recondo.WithProfiles(profileA, profileB),
		recondo.WithKeyFields(cfg.KeyFields...),
		recondo.WithNotificationThreshold(cfg.NotificationThreshold),
		recondo.WithShards(cfg.Shards),
		recondo.WithValidator(schema.New(inputShape)),
		recondo.WithLogger(log),
	}
	if cfg.NumericTolerance >= 0 {
		opts = append(opts, recondo.WithNumericTolerance(cfg.NumericTolerance))
	}
	if cfg.TimeTolerance >= 0 {
		opts = append(opts, recondo.WithTimeTolerance(cfg.TimeTolerance))
	}
	if cfg.Incremental {
		opts = append(opts, recondo.WithIncremental(cfg.ModifiedField))
	}
	if cfg.StateFile != "" {
		opts = append(opts, recondo.WithStatePath(cfg.StateFile))
	}

	client, err := recondo.New(opts...)
	if err != nil {
		return err
	}

	outcome, runErr := client.Run(ctx, rawA, rawB)
	if runErr != nil && outcome == nil {
		return runErr
	}
	if runErr != nil {
		// State persistence failed but the run itself completed; report
		// anyway and surface the error afterwards.
		log.Error().Err(runErr).Msg("run state was not persisted")
	}

	renderer := &report.Renderer{Base: cfg.ReportDir}
	dir, err := renderer.Render(outcome.Result, outcome.Metrics, profileA.Source, profileB.Source)
	if err != nil {
		return err
	}

	fmt.Printf("Report written to %s\n", dir)
	fmt.Printf("Match rate: %.2f%% (%d differences)\n",
		outcome.Metrics.MatchRate*100, outcome.Metrics.Differences())
	return runErr
}

// readInput reads one side's JSON file and decodes it into a slice of raw
// record trees. A top-level object is treated as a single record.
func (a *App) readInput(ctx context.Context, path string) ([]any, error) {
	if a.config.Canonicalize {
		jq := &canon.JQ{Binary: a.config.JQBinary}
		canonPath, err := canon.CanonicalizeFile(ctx, jq, path)
		if err != nil {
			return nil, err
		}
		path = canonPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, errors.WrapParse("json", path, err)
	}

	switch t := tree.(type) {
	case []any:
		return t, nil
	case map[string]any:
		return []any{t}, nil
	default:
		return nil, errors.NewValidationError(path, "",
			"top-level JSON value must be an array or object")
	}
}
