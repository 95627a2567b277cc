package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/plus3/flatecs/internal/saves"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// SavesOptions holds flags shared by the saves subcommands.
type SavesOptions struct {
	*RootOptions
	Database string
	Slot     string
}

func (o *SavesOptions) open() (*saves.Store, error) {
	path := o.Config.Saves.Path
	if o.Database != "" {
		path = o.Database
	}
	store, err := saves.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open saves", err)
	}
	return store, nil
}

// NewSavesCommand creates the saves command and its subcommands.
func NewSavesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SavesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "saves",
		Short: "Manage snapshot save slots",
		Long: `Manage whole-store snapshots kept in a SQLite database.

Examples:
  flatecs saves list
  flatecs saves import world.snap --slot quick
  flatecs saves export 0b4f... world.snap
  flatecs saves delete 0b4f...`,
	}
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the saves database (default from config)")

	cmd.AddCommand(newSavesListCommand(opts))
	cmd.AddCommand(newSavesImportCommand(opts))
	cmd.AddCommand(newSavesExportCommand(opts))
	cmd.AddCommand(newSavesDeleteCommand(opts))
	return cmd
}

func newSavesListCommand(opts *SavesOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saves, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.open()
			if err != nil {
				return err
			}
			defer store.Close()

			all, err := store.List(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "list saves", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSLOT\tLIVE\tCAPACITY\tBYTES\tCREATED")
			for _, s := range all {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d/%d/%d\t%d\t%s\n",
					s.ID, s.Slot, s.LiveEntities,
					s.Config.MaxEntities, s.Config.MaxComponentKinds, s.Config.MaxComponentSize,
					s.Size, s.CreatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
}

func newSavesImportCommand(opts *SavesOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Store a snapshot file in a slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blob, err := os.ReadFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "read snapshot", err)
			}

			store, err := opts.open()
			if err != nil {
				return err
			}
			defer store.Close()

			save, err := store.PutBlob(cmd.Context(), opts.Slot, opts.Config.Store.ECS(), blob)
			if err != nil {
				return WrapExitError(ExitFailure, "import "+args[0], err)
			}
			opts.Log.Info("snapshot imported", zap.Stringer("id", save.ID), zap.String("slot", save.Slot), zap.Int("live", save.LiveEntities))
			fmt.Fprintln(cmd.OutOrStdout(), save.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Slot, "slot", "default", "slot name")
	return cmd
}

func newSavesExportCommand(opts *SavesOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export ID FILE",
		Short: "Write a save's snapshot to a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "parse save id", err)
			}

			store, err := opts.open()
			if err != nil {
				return err
			}
			defer store.Close()

			_, blob, err := store.Get(cmd.Context(), id)
			if err != nil {
				return WrapExitError(ExitFailure, "export", err)
			}
			if err := os.WriteFile(args[1], blob, 0o644); err != nil {
				return WrapExitError(ExitFailure, "write snapshot", err)
			}
			return nil
		},
	}
}

func newSavesDeleteCommand(opts *SavesOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Remove a save",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "parse save id", err)
			}

			store, err := opts.open()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), id); err != nil {
				return WrapExitError(ExitFailure, "delete", err)
			}
			return nil
		},
	}
}
