package cli

import (
	"github.com/plus3/flatecs/internal/config"
	"github.com/plus3/flatecs/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootOptions holds global flags and the state every command shares once
// the root pre-run has loaded them.
type RootOptions struct {
	ConfigPath string
	LogLevel   string

	Config *config.Config
	Log    *zap.Logger
}

// NewRootCommand creates the root command for the flatecs CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "flatecs",
		Short: "flatecs - fixed-capacity entity component store",
		Long: `Tools around a fixed-capacity entity component store: benchmarks,
stress runs, snapshot inspection and save slot management.

Store capacities come from --config (TOML or YAML); every snapshot is only
readable by a store built with the capacities it was written with.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.Log != nil {
				_ = opts.Log.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a TOML or YAML config file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override the configured log level")

	cmd.AddCommand(NewBenchCommand(opts))
	cmd.AddCommand(NewStressCommand(opts))
	cmd.AddCommand(NewLogoCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewSavesCommand(opts))

	return cmd
}

func (o *RootOptions) load() error {
	cfg := config.Default()
	if o.ConfigPath != "" {
		loaded, err := config.Load(o.ConfigPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "load config", err)
		}
		cfg = loaded
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return WrapExitError(ExitCommandError, "create logger", err)
	}
	o.Config = cfg
	o.Log = log
	return nil
}
