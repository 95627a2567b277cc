package cli

import (
	"fmt"

	"github.com/pkg/profile"
	"github.com/plus3/flatecs/internal/bench"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// BenchOptions holds flags for the bench command.
type BenchOptions struct {
	*RootOptions
	Iterations int
	Profile    string
	ProfileDir string
}

var profileModes = map[string]func(*profile.Profile){
	"cpu":    profile.CPUProfile,
	"mem":    profile.MemProfileAllocs,
	"block":  profile.BlockProfile,
	"mutex":  profile.MutexProfile,
	"trace":  profile.TraceProfile,
	"thread": profile.ThreadcreationProfile,
}

// NewBenchCommand creates the bench command.
func NewBenchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BenchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time create, add, save, load, iterate and destroy",
		Long: `Run the store benchmark cycle and print the average cost of each phase.

Every iteration fills every slot of a store built with the configured
capacities, snapshots it to memory, loads the snapshot into a second store,
dispatches a system over every kind and destroys all entities.

Examples:
  flatecs bench
  flatecs bench --iterations 10000 --profile cpu`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Iterations, "iterations", "n", 0, "iterations to average over (default from config)")
	cmd.Flags().StringVar(&opts.Profile, "profile", "", "write a pprof profile: cpu|mem|block|mutex|trace|thread")
	cmd.Flags().StringVar(&opts.ProfileDir, "profile-dir", ".", "directory for profile output")

	return cmd
}

func runBench(opts *BenchOptions, cmd *cobra.Command) error {
	iterations := opts.Config.Bench.Iterations
	if opts.Iterations > 0 {
		iterations = opts.Iterations
	}

	if opts.Profile != "" {
		mode, ok := profileModes[opts.Profile]
		if !ok {
			return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("unknown profile mode %q", opts.Profile)}
		}
		p := profile.Start(mode, profile.ProfilePath(opts.ProfileDir), profile.NoShutdownHook, profile.Quiet)
		defer p.Stop()
	}

	opts.Log.Info("benchmark starting",
		zap.Int("iterations", iterations),
		zap.Int("max_entities", opts.Config.Store.MaxEntities),
		zap.Int("max_component_kinds", opts.Config.Store.MaxComponentKinds))

	res, err := bench.Run(cmd.Context(), bench.Options{
		Store:      opts.Config.Store.ECS(),
		Iterations: iterations,
	})
	if err != nil {
		return WrapExitError(ExitFailure, "benchmark", err)
	}
	opts.Log.Debug("benchmark finished", zap.Uint64("checksum", res.Checksum))

	return res.Render(cmd.OutOrStdout())
}
