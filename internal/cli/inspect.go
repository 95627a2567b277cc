package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/plus3/flatecs/ecs"
	"github.com/spf13/cobra"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Load a snapshot file and print its occupancy",
		Long: `Load a snapshot written by Storage.SaveFile into a store built with the
configured capacities and print entity and per-kind counts.

A snapshot written with different capacities is rejected as truncated or
mismatched.

Examples:
  flatecs inspect world.snap
  flatecs inspect --config game.toml world.snap`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, err := ecs.NewStorage(rootOpts.Config.Store.ECS())
			if err != nil {
				return WrapExitError(ExitCommandError, "create storage", err)
			}
			if err := storage.LoadFile(args[0]); err != nil {
				return WrapExitError(ExitFailure, "inspect "+args[0], err)
			}
			return printStats(cmd.OutOrStdout(), storage.CollectStats())
		},
	}
	return cmd
}

func printStats(w io.Writer, stats ecs.StorageStats) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "capacity\t%d\n", stats.Capacity)
	fmt.Fprintf(tw, "live entities\t%d\n", stats.LiveEntities)
	fmt.Fprintf(tw, "free slots\t%d\n", stats.FreeSlots)
	fmt.Fprintf(tw, "created\t%d\n", stats.Created)
	fmt.Fprintf(tw, "component kinds\t%d\n", stats.ComponentKinds)
	fmt.Fprintf(tw, "slot size\t%d bytes\n", stats.SlotSize)
	fmt.Fprintf(tw, "snapshot size\t%d bytes\n", stats.SnapshotSize)
	for k, n := range stats.KindCounts {
		if n > 0 {
			fmt.Fprintf(tw, "kind %d\t%d entities\n", k, n)
		}
	}
	return tw.Flush()
}
