package cli

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fetchgraph/sketch/internal/bind"
	"github.com/fetchgraph/sketch/internal/normalize"
	"github.com/fetchgraph/sketch/internal/relquery"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	CatalogPath string
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <file|->",
		Short: "Compile a sketch into a relational query",
		Long: `Run the full pipeline: parse, normalize, and bind the sketch against
an entity catalog, printing the relational query as JSON. Unresolvable
names and invalid values abort with the binding failure kind.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.CatalogPath, "catalog", "c", "", "entity catalog file (.yaml, .cue, or .db)")
	_ = cmd.MarkFlagRequired("catalog")

	return cmd
}

func runCompile(opts *CompileOptions, arg string, cmd *cobra.Command) error {
	formatter := NewFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	q, err := compilePipeline(opts, arg, cmd, formatter)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(q, "", "  ")
	if err != nil {
		return WrapExitError(ExitCommandError, "encoding query", err)
	}
	return formatter.SuccessText(string(data), q)
}

// compilePipeline runs parse → normalize → bind and maps each failure
// class onto the right exit code and error payload.
func compilePipeline(opts *CompileOptions, arg string, cmd *cobra.Command, formatter *OutputFormatter) (relquery.Query, error) {
	spec, err := loadSpec(opts.RootOptions)
	if err != nil {
		return relquery.Query{}, WrapExitError(ExitCommandError, "loading spec", err)
	}
	cat, err := loadCatalog(opts.CatalogPath, spec)
	if err != nil {
		return relquery.Query{}, WrapExitError(ExitCommandError, "loading catalog", err)
	}
	src, err := readSketchInput(arg, cmd.InOrStdin())
	if err != nil {
		return relquery.Query{}, WrapExitError(ExitCommandError, "reading input", err)
	}

	sk, diags := normalize.ParseAndNormalize(src, spec)
	for _, d := range diags.Warnings() {
		formatter.VerboseLog("warning %s: %s (at %s)", d.Code, d.Message, d.Path)
	}
	if diags.HasErrors() {
		if err := formatter.Error("DSL_INVALID", "sketch has error diagnostics", diags.Errors()); err != nil {
			return relquery.Query{}, err
		}
		return relquery.Query{}, NewExitError(ExitFailure, diags.Errors().Summary())
	}

	q, err := bind.Compile(sk, cat)
	if err != nil {
		code := string(bind.KindOf(err))
		if code == "" {
			code = "BIND_ERROR"
		}
		if ferr := formatter.Error(code, err.Error(), nil); ferr != nil {
			return relquery.Query{}, ferr
		}
		return relquery.Query{}, WrapExitError(ExitFailure, "binding failed", err)
	}

	logrus.WithFields(logrus.Fields{
		"root_entity": q.RootEntity,
		"relations":   len(q.Relations),
		"limit":       q.Limit,
	}).Debug("compiled sketch")
	return q, nil
}
