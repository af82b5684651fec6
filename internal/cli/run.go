package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/sysplan/internal/engine"
	"github.com/roach88/sysplan/internal/planner"
	"github.com/roach88/sysplan/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database         string
	Ticks            int
	MaxInvocations   int
	RejectPredicates bool
}

// RunOutput is the JSON payload of the run command.
type RunOutput struct {
	Ticks []engine.Stats `json:"ticks"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <specs-dir>",
		Short: "Dry-run the plan against a world database",
		Long: `Plan the systems in specs-dir and run the plan against the SQLite world
in --db (creating it if it doesn't exist).

Routines are stand-ins that only record a visit in the world's visits log,
so the log shows which entities each system would have processed. Ticks
continue from the last tick in the log. Every predicate accepts every
entity unless --reject-predicates is set.

Example:
  sysplan run --db ./world.db ./systems
  sysplan run --db ./world.db ./systems --ticks 3 --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTicks(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().IntVar(&opts.Ticks, "ticks", 1, "number of ticks to run")
	cmd.Flags().IntVar(&opts.MaxInvocations, "max-invocations", 0, "routine invocations allowed per tick (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.RejectPredicates, "reject-predicates", false, "make every predicate reject every entity")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runTicks(opts *RunOptions, specsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Ticks < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--ticks must be at least 1, got %d", opts.Ticks))
	}

	ds, err := loadDescriptors(formatter, specsDir)
	if err != nil {
		return err
	}
	plan, err := planDescriptors(formatter, ds)
	if err != nil {
		return err
	}
	for _, d := range diagnosticsOf(plan) {
		slog.Warn("system skipped", "diagnostic", d.String())
	}

	slog.Info("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	last, err := st.LastTick(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read visits log", err)
	}

	eng := engine.New(st, dryRunRegistry(plan, !opts.RejectPredicates),
		engine.WithClock(engine.NewClockAt(last)),
		engine.WithMaxInvocations(opts.MaxInvocations),
		engine.WithVisitLog(),
	)

	out := RunOutput{Ticks: make([]engine.Stats, 0, opts.Ticks)}
	for i := 0; i < opts.Ticks; i++ {
		stats, err := eng.Run(ctx, plan)
		out.Ticks = append(out.Ticks, stats)
		if err != nil {
			code := ErrCodeGeneric
			if c, ok := engine.CodeOf(err); ok {
				code = string(c)
			}
			if formatter.Format == "json" {
				if encErr := formatter.Failure(out, code, err.Error()); encErr != nil {
					return encErr
				}
			} else {
				outputRunText(formatter, out)
				fmt.Fprintf(formatter.Writer, "✗ tick %d failed: %v\n", stats.Tick, err)
			}
			return WrapExitError(ExitFailure, "tick failed", err)
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(out)
	}
	outputRunText(formatter, out)
	return nil
}

// dryRunRegistry registers a no-op routine for every routine in the plan
// and a constant predicate for every predicate it filters on.
func dryRunRegistry(plan *planner.Plan, accept bool) *engine.Registry {
	reg := engine.NewRegistry()
	for _, e := range plan.Entries {
		for _, rid := range e.Root.Routines {
			reg.RegisterRoutine(rid, func(context.Context, store.EntityID) error {
				return nil
			})
		}
		for _, o := range e.Origins {
			for _, pid := range o.Descriptor.Predicates {
				reg.RegisterPredicate(pid, func(context.Context, store.EntityID) (bool, error) {
					return accept, nil
				})
			}
		}
	}
	return reg
}

func outputRunText(formatter *OutputFormatter, out RunOutput) {
	for _, s := range out.Ticks {
		fmt.Fprintf(formatter.Writer, "tick %d: %d scan(s), %d row(s), %d invocation(s)\n",
			s.Tick, s.Scans, s.Rows, s.Invocations)
	}
}
