package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/sysplan/internal/ir"
	"github.com/roach88/sysplan/internal/optree"
	"github.com/roach88/sysplan/internal/planner"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	NoMerge bool   // keep one entry per system
	Workers int    // parallel tree builders
	DOT     string // Graphviz output file path
}

// PlanOutput is the JSON payload of the plan command.
type PlanOutput struct {
	Stats       planner.Stats      `json:"stats"`
	Entries     []EntryOutput      `json:"entries"`
	Diagnostics []diagnosticOutput `json:"diagnostics,omitempty"`
}

// EntryOutput describes one plan entry.
type EntryOutput struct {
	Routines []ir.RoutineID `json:"routines"`

	// Key is the data-source key shared by every origin of the entry.
	Key  string `json:"key"`
	Tree string `json:"tree"`

	// DescriptorHashes identify the merged descriptors, parallel to
	// Routines.
	DescriptorHashes []string `json:"descriptor_hashes"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan <specs-dir>",
		Short: "Build and merge the query plan for a set of systems",
		Long: `Build an operator tree for every system declared in the CUE files of
specs-dir and merge systems that read identical data.

Systems that cannot be planned are reported and skipped; the rest of the
plan is still printed.

Exit codes:
  0 - Every system planned
  1 - One or more systems reported a diagnostic
  2 - Command error (invalid paths, unloadable specs, etc.)
  3 - Internal planner error

Examples:
  sysplan plan ./systems
  sysplan plan ./systems --no-merge
  sysplan plan ./systems --dot plan.dot --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.NoMerge, "no-merge", false, "keep one entry per system")
	cmd.Flags().IntVar(&opts.Workers, "workers", 1, "number of parallel tree builders")
	cmd.Flags().StringVar(&opts.DOT, "dot", "", "write the plan forest as Graphviz to this file")

	return cmd
}

func runPlan(opts *PlanOptions, specsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	if opts.Workers < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--workers must be at least 1, got %d", opts.Workers))
	}

	ds, err := loadDescriptors(formatter, specsDir)
	if err != nil {
		return err
	}

	planOpts := []planner.Option{planner.WithWorkers(opts.Workers)}
	if opts.NoMerge {
		planOpts = append(planOpts, planner.WithoutMerge())
	}
	plan, err := planDescriptors(formatter, ds, planOpts...)
	if err != nil {
		return err
	}

	if opts.DOT != "" {
		if err := os.WriteFile(opts.DOT, []byte(optree.FormatDOT(plan.Roots())), 0644); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing DOT file: %v", err), nil)
			return WrapExitError(ExitCommandError, "writing DOT file", err)
		}
		formatter.VerboseLog("Wrote plan forest to %s", opts.DOT)
	}

	out := buildPlanOutput(plan)
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

	outputPlanText(formatter, out, opts.DOT)
	if len(out.Diagnostics) > 0 {
		return diagnosticsExit(out.Diagnostics)
	}
	return nil
}

func buildPlanOutput(plan *planner.Plan) PlanOutput {
	out := PlanOutput{
		Stats:       plan.Stats(),
		Entries:     make([]EntryOutput, len(plan.Entries)),
		Diagnostics: diagnosticsOf(plan),
	}
	for i, e := range plan.Entries {
		out.Entries[i] = EntryOutput{
			Routines:         e.Root.Routines,
			Tree:             optree.Format(e.Root),
			DescriptorHashes: make([]string, len(e.Origins)),
		}
		for j, o := range e.Origins {
			out.Entries[i].DescriptorHashes[j] = o.Hash
		}
		if len(e.Origins) > 0 {
			out.Entries[i].Key = e.Origins[0].Key
		}
	}
	return out
}

// outputPlanText outputs the plan in human-readable form.
func outputPlanText(formatter *OutputFormatter, out PlanOutput, dotFile string) {
	w := formatter.Writer

	for _, d := range out.Diagnostics {
		fmt.Fprintf(w, "✗ %s\n", d)
	}
	if len(out.Diagnostics) > 0 {
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "✓ Planned %d system(s) into %d entr%s (%d shared, %d scan(s) saved)\n\n",
		out.Stats.Descriptors, out.Stats.Entries, plural(out.Stats.Entries, "y", "ies"),
		out.Stats.SharedEntries, out.Stats.ScansSaved)

	for _, e := range out.Entries {
		fmt.Fprint(w, e.Tree)
		fmt.Fprintln(w)
	}

	if dotFile != "" {
		fmt.Fprintf(w, "Wrote plan forest to %s\n", dotFile)
	}
}

func diagnosticsExit(ds []diagnosticOutput) error {
	return NewExitError(ExitFailure, fmt.Sprintf("%d system(s) could not be planned", len(ds)))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
