package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fetchgraph/sketch/internal/relsql"
)

// SQLResult is the wire payload of the sql command.
type SQLResult struct {
	SQL  string `json:"sql"`
	Args []any  `json:"args"`
}

// NewSQLCommand creates the sql command.
func NewSQLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sql <file|->",
		Short: "Compile a sketch and render it as parameterized SQL",
		Long: `Compile the sketch like the compile command, then render the
relational query as a parameterized SQLite SELECT. The statement is
printed, never executed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.CatalogPath, "catalog", "c", "", "entity catalog file (.yaml, .cue, or .db)")
	_ = cmd.MarkFlagRequired("catalog")

	return cmd
}

func runSQL(opts *CompileOptions, arg string, cmd *cobra.Command) error {
	formatter := NewFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	q, err := compilePipeline(opts, arg, cmd, formatter)
	if err != nil {
		return err
	}

	stmt, err := relsql.Render(q)
	if err != nil {
		if ferr := formatter.Error("SQL_RENDER", err.Error(), nil); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitFailure, "rendering SQL", err)
	}

	result := SQLResult{SQL: stmt.SQL, Args: stmt.Args}
	if result.Args == nil {
		result.Args = []any{}
	}
	return formatter.SuccessText(renderSQLText(result), result)
}

func renderSQLText(result SQLResult) string {
	var b strings.Builder
	b.WriteString(result.SQL)
	if len(result.Args) > 0 {
		parts := make([]string, 0, len(result.Args))
		for _, a := range result.Args {
			parts = append(parts, fmt.Sprintf("%v", a))
		}
		fmt.Fprintf(&b, "\n-- args: [%s]", strings.Join(parts, ", "))
	}
	return b.String()
}
