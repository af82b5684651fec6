package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sysplan/internal/ir"
	"github.com/roach88/sysplan/internal/querysql"
)

// ExplainOutput is the JSON payload of the explain command.
type ExplainOutput struct {
	Queries     []QueryOutput      `json:"queries"`
	Diagnostics []diagnosticOutput `json:"diagnostics,omitempty"`
}

// QueryOutput is the SQL the reference runtime runs for one plan entry.
type QueryOutput struct {
	Routines   []ir.RoutineID   `json:"routines"`
	SQL        string           `json:"sql"`
	Params     []any            `json:"params"`
	Predicates []ir.PredicateID `json:"predicates,omitempty"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain <specs-dir>",
		Short: "Show the SQL each plan entry runs",
		Long: `Plan the systems in specs-dir and print, for every merged entry, the
SQLite query that produces its rows and the predicates applied to them
afterwards, in order.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runExplain(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	ds, err := loadDescriptors(formatter, specsDir)
	if err != nil {
		return err
	}
	plan, err := planDescriptors(formatter, ds)
	if err != nil {
		return err
	}

	compiler := querysql.NewSQLCompiler()
	out := ExplainOutput{
		Queries:     make([]QueryOutput, len(plan.Entries)),
		Diagnostics: diagnosticsOf(plan),
	}
	for i, e := range plan.Entries {
		q, err := compiler.CompileEntry(e.Root)
		if err != nil {
			_ = formatter.Error(ErrCodeInternal, err.Error(), nil)
			return WrapExitError(ExitInternalError, "compiling plan entry", err)
		}
		out.Queries[i] = QueryOutput{
			Routines:   e.Root.Routines,
			SQL:        q.SQL,
			Params:     q.Params,
			Predicates: q.Predicates,
		}
	}

	if formatter.Format == "json" {
		if len(out.Diagnostics) > 0 {
			first := out.Diagnostics[0]
			if err := formatter.Failure(out, first.Kind, first.Message); err != nil {
				return err
			}
			return diagnosticsExit(out.Diagnostics)
		}
		return formatter.Success(out)
	}

	w := formatter.Writer
	for _, d := range out.Diagnostics {
		fmt.Fprintf(w, "✗ %s\n", d)
	}
	for i, q := range out.Queries {
		if i > 0 || len(out.Diagnostics) > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "-- %v\n", q.Routines)
		fmt.Fprintf(w, "%s;\n", q.SQL)
		fmt.Fprintf(w, "-- params: %v\n", q.Params)
		if len(q.Predicates) > 0 {
			fmt.Fprintf(w, "-- then predicates: %v\n", q.Predicates)
		}
	}

	if len(out.Diagnostics) > 0 {
		return diagnosticsExit(out.Diagnostics)
	}
	return nil
}
