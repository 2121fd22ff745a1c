package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/planwire/internal/validate"
	"github.com/roach88/planwire/internal/wire"
)

// ValidateResult holds the validate command's output.
type ValidateResult struct {
	File    string `json:"file"`
	Variant string `json:"variant"`
	Valid   bool   `json:"valid"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <plan-file>",
		Short: "Decode and validate an encoded plan",
		Long: `Decode an encoded plan file and run the full invariant check. Reports
the first violation found with its code and root-to-node path.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(rootOpts *RootOptions, path string, cmd *cobra.Command) error {
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
	out.VerboseLog("read %d bytes from %s", len(data), path)

	rel, err := wire.Decode(data, wire.WithMaxDepth(rootOpts.MaxDepth))
	if err != nil {
		return reportPlanError(out, err)
	}
	if err := validate.Validate(rel, validate.WithMaxDepth(rootOpts.MaxDepth)); err != nil {
		return reportPlanError(out, err)
	}

	result := ValidateResult{File: path, Variant: rel.VariantName(), Valid: true}
	if rootOpts.Format == "json" {
		return out.Success(result)
	}
	return out.Success(fmt.Sprintf("%s: valid %s plan", path, result.Variant))
}
