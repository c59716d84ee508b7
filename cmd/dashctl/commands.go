package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"dashcore/internal/core"
	"dashcore/internal/script"

	"github.com/spf13/cobra"
)

func (a *app) optionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options <dimension>",
		Short: "List the selectable values of a filter dimension",
		Long:  "Dimensions: " + strings.Join(dimensionNames(), ", "),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dim := core.Dimension(args[0])
			if !slices.Contains(core.Dimensions(), dim) {
				return fmt.Errorf("unknown dimension %q (want one of %s)", args[0], strings.Join(dimensionNames(), ", "))
			}
			store, err := a.newStore()
			if err != nil {
				return err
			}
			for _, opt := range store.FilterOptions(dim) {
				fmt.Fprintln(cmd.OutOrStdout(), opt)
			}
			return nil
		},
	}
}

func (a *app) viewCmd() *cobra.Command {
	var (
		load string
		set  map[string]string
	)
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show the state and filtered record counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.newStore()
			if err != nil {
				return err
			}
			if err := a.applySettings(cmd.Context(), store, load, set); err != nil {
				return err
			}
			view := store.FilteredView()
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"state":      store.State(),
				"records":    datasetCounts(view),
				"total":      view.RecordCount(),
				"unfiltered": store.RecordCount(),
			})
		},
	}
	cmd.Flags().StringVar(&load, "load", "", "load a saved snapshot first")
	cmd.Flags().StringToStringVar(&set, "set", nil, "field=value overrides applied after loading")
	return cmd
}

func (a *app) snapshotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Manage saved dashboard snapshots",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List saved snapshot names",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				store, err := a.newStore()
				if err != nil {
					return err
				}
				for _, name := range store.SavedStates(cmd.Context()) {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "show <name>",
			Short: "Print a saved snapshot",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := a.newStore()
				if err != nil {
					return err
				}
				st, ok := store.Snapshot(cmd.Context(), args[0])
				if !ok {
					return fmt.Errorf("snapshot %q not found", args[0])
				}
				return writeJSON(cmd.OutOrStdout(), st)
			},
		},
		&cobra.Command{
			Use:   "delete <name>",
			Short: "Delete a saved snapshot",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := a.newStore()
				if err != nil {
					return err
				}
				if !store.DeleteState(cmd.Context(), args[0]) {
					return fmt.Errorf("snapshot %q not found", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
				return nil
			},
		},
	)
	return cmd
}

func (a *app) scriptCmd() *cobra.Command {
	var (
		load  string
		set   map[string]string
		allow []string
	)
	cmd := &cobra.Command{
		Use:   "script <file.go>",
		Short: "Run a transformation script over the filtered data",
		Long: `The script must define
  func Transform(data map[string][]map[string]any) ([]map[string]any, error)
Console output is written to stderr, records to stdout as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}
			store, err := a.newStore()
			if err != nil {
				return err
			}
			if err := a.applySettings(cmd.Context(), store, load, set); err != nil {
				return err
			}
			exec := script.NewExecutor(
				script.WithTimeout(a.cfg.ScriptTimeout),
				script.WithAllowedImports(allow...),
				script.WithLogger(a.logger),
			)
			res, err := store.RunScript(cmd.Context(), exec, filepath.Base(args[0]), string(src))
			if res.Console != "" {
				fmt.Fprint(cmd.ErrOrStderr(), res.Console)
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res.Records)
		},
	}
	cmd.Flags().StringVar(&load, "load", "", "load a saved snapshot first")
	cmd.Flags().StringToStringVar(&set, "set", nil, "field=value overrides applied after loading")
	cmd.Flags().StringSliceVar(&allow, "allow", nil, "extra packages the script may import")
	return cmd
}
