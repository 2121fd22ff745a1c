package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/planwire/internal/canonical"
	"github.com/roach88/planwire/internal/fixture"
	"github.com/roach88/planwire/internal/validate"
	"github.com/roach88/planwire/internal/wire"
)

// EncodeResult holds the encode command's output.
type EncodeResult struct {
	Fixture     string `json:"fixture"`
	Output      string `json:"output"`
	Bytes       int    `json:"bytes"`
	Fingerprint string `json:"fingerprint"`
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "encode <fixture>",
		Short: "Build a plan from a fixture and encode it",
		Long: `Build a relation tree from a YAML or CUE fixture, validate it, and
write the wire encoding to a file.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(rootOpts, args[0], outPath, cmd)
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default: fixture path with .plan extension)")
	return cmd
}

func runEncode(rootOpts *RootOptions, fixturePath, outPath string, cmd *cobra.Command) error {
	out := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	fx, err := fixture.Load(fixturePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load fixture", err)
	}
	out.VerboseLog("loaded fixture %q", fx.Name)

	rel, err := fx.Build()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build plan", err)
	}

	if err := validate.Validate(rel, validate.WithMaxDepth(rootOpts.MaxDepth)); err != nil {
		return reportPlanError(out, err)
	}

	encoded, err := wire.Encode(rel, wire.WithMaxDepth(rootOpts.MaxDepth))
	if err != nil {
		return reportPlanError(out, err)
	}

	fingerprint, err := canonical.Fingerprint(rel)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to fingerprint plan", err)
	}

	if outPath == "" {
		outPath = defaultPlanPath(fixturePath)
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return WrapExitError(ExitCommandError, "failed to write plan", err)
	}

	result := EncodeResult{
		Fixture:     fx.Name,
		Output:      outPath,
		Bytes:       len(encoded),
		Fingerprint: fingerprint,
	}
	if rootOpts.Format == "json" {
		return out.Success(result)
	}
	return out.Success(fmt.Sprintf("encoded %q to %s (%d bytes, fingerprint %s)",
		result.Fixture, result.Output, result.Bytes, result.Fingerprint))
}

func defaultPlanPath(fixturePath string) string {
	for _, ext := range []string{".yaml", ".yml", ".cue"} {
		if strings.HasSuffix(fixturePath, ext) {
			return strings.TrimSuffix(fixturePath, ext) + ".plan"
		}
	}
	return fixturePath + ".plan"
}

// reportPlanError renders a structured decode/validate error and returns an
// ExitError carrying the failure exit code.
func reportPlanError(out *OutputFormatter, err error) error {
	var ve *validate.Error
	if errors.As(err, &ve) {
		out.Error(string(ve.Code), ve.Message, ve.Path.String())
		return WrapExitError(ExitFailure, "plan failed validation", err)
	}
	var de *wire.DecodeError
	if errors.As(err, &de) {
		out.Error(string(de.Code), de.Message, de.Path.String())
		return WrapExitError(ExitFailure, "plan failed decoding", err)
	}
	var ee *wire.EncodeError
	if errors.As(err, &ee) {
		out.Error(string(ee.Code), ee.Message, ee.Path.String())
		return WrapExitError(ExitFailure, "plan failed encoding", err)
	}
	return WrapExitError(ExitFailure, "plan error", err)
}
