package cli

import (
	"time"

	"github.com/plus3/flatecs/internal/bench"
	"github.com/spf13/cobra"
)

// StressOptions holds flags for the stress command.
type StressOptions struct {
	*RootOptions
	Duration       time.Duration
	Entities       int
	Systems        int
	Seed           int64
	Churn          float64
	GCPauseMetrics bool
}

// NewStressCommand creates the stress command.
func NewStressCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StressOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Drive synthetic systems through the scheduler for a while",
		Long: `Populate a store with random entities, register synthetic systems that
touch their components and recycle entities through command buffers, then
run frames back to back and report frame timings and memory use.

Examples:
  flatecs stress --duration 30s --systems 50
  flatecs stress --churn 0.05 --gc-pause-metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress(opts, cmd)
		},
	}

	cmd.Flags().DurationVarP(&opts.Duration, "duration", "d", 0, "how long to run (default from config)")
	cmd.Flags().IntVar(&opts.Entities, "entities", -1, "initial number of entities (default from config)")
	cmd.Flags().IntVar(&opts.Systems, "systems", -1, "number of synthetic systems (default from config)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed (default from config)")
	cmd.Flags().Float64Var(&opts.Churn, "churn", 0.01, "chance per visit that a system recycles the entity")
	cmd.Flags().BoolVar(&opts.GCPauseMetrics, "gc-pause-metrics", false, "include GC pause metrics in the report")

	return cmd
}

func runStress(opts *StressOptions, cmd *cobra.Command) error {
	cfg := opts.Config.Stress
	if opts.Duration > 0 {
		cfg.Duration = opts.Duration
	}
	if opts.Entities >= 0 {
		cfg.Entities = opts.Entities
	}
	if opts.Systems >= 0 {
		cfg.Systems = opts.Systems
	}
	if opts.Seed != 0 {
		cfg.Seed = opts.Seed
	}

	report, err := bench.Stress(cmd.Context(), bench.StressOptions{
		Store:          opts.Config.Store.ECS(),
		Duration:       cfg.Duration,
		Entities:       cfg.Entities,
		Systems:        cfg.Systems,
		Seed:           uint64(cfg.Seed),
		Churn:          opts.Churn,
		GCPauseMetrics: opts.GCPauseMetrics,
	}, opts.Log)
	if err != nil {
		return WrapExitError(ExitFailure, "stress", err)
	}
	return report.Render(cmd.OutOrStdout())
}
