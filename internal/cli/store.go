package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/planwire/internal/planstore"
	"github.com/roach88/planwire/internal/wire"
)

// NewStoreCommand creates the store command group.
func NewStoreCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "store",
		Short: "Persist and retrieve plans by fingerprint",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "planwire.db", "SQLite database path")

	cmd.AddCommand(newStorePutCommand(rootOpts, &dbPath))
	cmd.AddCommand(newStoreGetCommand(rootOpts, &dbPath))
	cmd.AddCommand(newStoreListCommand(rootOpts, &dbPath))
	return cmd
}

// StorePutResult holds the store put command's output.
type StorePutResult struct {
	Fingerprint string `json:"fingerprint"`
}

func newStorePutCommand(rootOpts *RootOptions, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:           "put <plan-file>",
		Short:         "Validate and store an encoded plan",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(rootOpts, cmd)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read plan", err)
			}
			rel, err := wire.Decode(data, wire.WithMaxDepth(rootOpts.MaxDepth))
			if err != nil {
				return reportPlanError(out, err)
			}

			store, err := planstore.Open(*dbPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open store", err)
			}
			defer store.Close()

			fingerprint, err := store.Put(cmd.Context(), rel)
			if err != nil {
				return reportPlanError(out, err)
			}
			if rootOpts.Format == "json" {
				return out.Success(StorePutResult{Fingerprint: fingerprint})
			}
			return out.Success(fmt.Sprintf("stored plan %s", fingerprint))
		},
	}
}

func newStoreGetCommand(rootOpts *RootOptions, dbPath *string) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:           "get <fingerprint>",
		Short:         "Retrieve a stored plan by fingerprint",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(rootOpts, cmd)

			store, err := planstore.Open(*dbPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open store", err)
			}
			defer store.Close()

			rel, err := store.Get(cmd.Context(), args[0])
			if errors.Is(err, planstore.ErrNotFound) {
				return WrapExitError(ExitFailure, "plan not found", err)
			}
			if err != nil {
				return reportPlanError(out, err)
			}

			encoded, err := wire.Encode(rel, wire.WithMaxDepth(rootOpts.MaxDepth))
			if err != nil {
				return reportPlanError(out, err)
			}
			if outPath == "" {
				return WrapExitError(ExitCommandError, "missing --output path", nil)
			}
			if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
				return WrapExitError(ExitCommandError, "failed to write plan", err)
			}
			if rootOpts.Format == "json" {
				return out.Success(map[string]any{"output": outPath, "variant": rel.VariantName()})
			}
			return out.Success(fmt.Sprintf("wrote %s plan to %s", rel.VariantName(), outPath))
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file for the encoded plan")
	return cmd
}

func newStoreListCommand(rootOpts *RootOptions, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List stored plans",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(rootOpts, cmd)

			store, err := planstore.Open(*dbPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open store", err)
			}
			defer store.Close()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to list plans", err)
			}
			if rootOpts.Format == "json" {
				return out.Success(entries)
			}
			for _, e := range entries {
				if e.SourceInfo != "" {
					fmt.Fprintf(out.Writer, "%d\t%s\t%s\n", e.CreatedSeq, e.Fingerprint, e.SourceInfo)
					continue
				}
				fmt.Fprintf(out.Writer, "%d\t%s\n", e.CreatedSeq, e.Fingerprint)
			}
			return nil
		},
	}
}

func formatter(rootOpts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}
}
