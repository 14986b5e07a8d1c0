package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fetchgraph/sketch/internal/diag"
	"github.com/fetchgraph/sketch/internal/normalize"
	"github.com/fetchgraph/sketch/internal/sketch"
)

// NormalizeResult is the wire payload of the normalize command.
type NormalizeResult struct {
	Sketch      sketch.Sketch    `json:"sketch"`
	Diagnostics diag.Diagnostics `json:"diagnostics"`
}

// NewNormalizeCommand creates the normalize command.
func NewNormalizeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <file|->",
		Short: "Parse a sketch and print its canonical form",
		Long: `Parse the tolerant sketch dialect and print the canonical sketch:
alias-free keys, canonical operators, defaults filled in, and the
where clause as an explicit boolean tree. Diagnostics accompany the
output; error-severity diagnostics exit non-zero.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(rootOpts, args[0], cmd)
		},
	}
}

func runNormalize(opts *RootOptions, arg string, cmd *cobra.Command) error {
	formatter := NewFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	spec, err := loadSpec(opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading spec", err)
	}
	src, err := readSketchInput(arg, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "reading input", err)
	}

	sk, diags := normalize.ParseAndNormalize(src, spec)
	logrus.WithFields(logrus.Fields{
		"from":        sk.From,
		"diagnostics": len(diags),
	}).Debug("normalized sketch")

	result := NormalizeResult{Sketch: sk, Diagnostics: diags}
	if err := formatter.SuccessText(renderNormalizeText(result), result); err != nil {
		return err
	}
	if diags.HasErrors() {
		return NewExitError(ExitFailure, "sketch has error diagnostics")
	}
	return nil
}

func renderNormalizeText(result NormalizeResult) string {
	var b strings.Builder
	data, err := json.MarshalIndent(result.Sketch, "", "  ")
	if err != nil {
		data = []byte(fmt.Sprintf("%+v", result.Sketch))
	}
	b.Write(data)
	for _, d := range result.Diagnostics {
		fmt.Fprintf(&b, "\n%s %s: %s", d.Severity, d.Code, d.Message)
		if d.Path != "" {
			fmt.Fprintf(&b, " (at %s)", d.Path)
		}
	}
	return b.String()
}
