package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/planwire/internal/canonical"
	"github.com/roach88/planwire/internal/wire"
)

// InspectResult holds the inspect command's output.
type InspectResult struct {
	File        string          `json:"file"`
	Variant     string          `json:"variant"`
	Fingerprint string          `json:"fingerprint"`
	Plan        json.RawMessage `json:"plan"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <plan-file>",
		Short: "Render an encoded plan as canonical JSON",
		Long: `Decode an encoded plan file and print its canonical JSON rendering
together with the plan fingerprint. The plan is not validated; inspect works
on structurally sound but semantically broken plans so they can be diagnosed
before rejection.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runInspect(rootOpts *RootOptions, path string, cmd *cobra.Command) error {
	out := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read plan", err)
	}

	rel, err := wire.Decode(data, wire.WithMaxDepth(rootOpts.MaxDepth))
	if err != nil {
		return reportPlanError(out, err)
	}

	rendered, err := canonical.Marshal(rel)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to render plan", err)
	}
	fingerprint, err := canonical.Fingerprint(rel)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to fingerprint plan", err)
	}

	if rootOpts.Format == "json" {
		return out.Success(InspectResult{
			File:        path,
			Variant:     rel.VariantName(),
			Fingerprint: fingerprint,
			Plan:        json.RawMessage(rendered),
		})
	}
	fmt.Fprintf(out.Writer, "variant:     %s\n", rel.VariantName())
	fmt.Fprintf(out.Writer, "fingerprint: %s\n", fingerprint)
	fmt.Fprintf(out.Writer, "%s\n", rendered)
	return nil
}
