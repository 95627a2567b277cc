package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/plus3/flatecs/internal/logo"
	"github.com/spf13/cobra"
)

// LogoOptions holds flags for the logo command.
type LogoOptions struct {
	*RootOptions
	Frames int
	Delay  time.Duration
	Seed   uint64
}

// NewLogoCommand creates the logo command.
func NewLogoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "logo",
		Short: "Animate the project logo in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Delay <= 0 {
				return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("--delay must be positive, got %s", opts.Delay)}
			}
			seed := opts.Seed
			if !cmd.Flags().Changed("seed") {
				seed = uint64(time.Now().UnixNano())
			}
			err := logo.Animate(cmd.Context(), cmd.OutOrStdout(), logo.New(seed), opts.Frames, opts.Delay)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVar(&opts.Frames, "frames", 0, "frames to draw; 0 runs until interrupted")
	cmd.Flags().DurationVar(&opts.Delay, "delay", logo.DefaultDelay, "pause between frames")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed (default: current time)")

	return cmd
}
