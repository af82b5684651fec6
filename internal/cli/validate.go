package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/sysplan/internal/compiler"
	"github.com/roach88/sysplan/internal/planner"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Strict bool // treat lint warnings as failures
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.ValidationError `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Check system declarations without printing a plan",
		Long: `Load the systems declared in specs-dir, lint them and check that every
one of them can be planned.

Errors are declarations the planner rejects. Warnings are declarations that
plan but are redundant or can never match an entity, such as a tag that is
both required and excluded; --strict turns warnings into failures.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat lint warnings as failures")

	return cmd
}

func runValidate(opts *ValidateOptions, specsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	ds, err := loadDescriptors(formatter, specsDir)
	if err != nil {
		return err
	}

	result := ValidationResult{Warnings: compiler.LintAll(ds)}

	var diagnostics []planner.Diagnostic
	p := planner.New(planner.WithLogger(slog.Default()), planner.WithReporter(func(d planner.Diagnostic) {
		diagnostics = append(diagnostics, d)
	}))
	for _, d := range ds {
		formatter.VerboseLog("Validating system: %s", d.Routine)
	}
	if _, err := p.Plan(ds); err != nil {
		_ = formatter.Error(ErrCodeInternal, err.Error(), nil)
		return WrapExitError(ExitInternalError, "planner invariant violated", err)
	}
	for _, d := range diagnostics {
		field := "system"
		if d.Descriptor != nil {
			field = "system." + string(d.Descriptor.Routine)
		}
		result.Errors = append(result.Errors, compiler.ValidationError{
			Field:   field,
			Message: d.Message,
			Code:    string(d.Kind),
			Line:    d.Pos.Line,
		})
	}

	failed := len(result.Errors) > 0 || (opts.Strict && len(result.Warnings) > 0)
	result.Valid = !failed

	if formatter.Format == "json" {
		if !failed {
			return formatter.Success(result)
		}
		first := firstFinding(result)
		if err := formatter.Failure(result, first.Code, first.Message); err != nil {
			return err
		}
		return validationExit(result)
	}

	outputValidationText(formatter, result)
	if failed {
		return validationExit(result)
	}
	return nil
}

func firstFinding(r ValidationResult) compiler.ValidationError {
	if len(r.Errors) > 0 {
		return r.Errors[0]
	}
	return r.Warnings[0]
}

// validationExit maps a failed validation to exit code 1.
func validationExit(r ValidationResult) error {
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s), %d warning(s)",
		len(r.Errors), len(r.Warnings)))
}

// outputValidationText outputs the findings in human-readable form.
func outputValidationText(formatter *OutputFormatter, r ValidationResult) {
	w := formatter.Writer

	if r.Valid && len(r.Warnings) == 0 {
		fmt.Fprintln(w, "✓ All systems valid")
		return
	}

	if r.Valid {
		fmt.Fprintf(w, "✓ All systems valid, %d warning(s)\n\n", len(r.Warnings))
	} else {
		fmt.Fprintln(w, "✗ Validation failed")
		fmt.Fprintln(w)
	}

	for _, e := range r.Errors {
		printFinding(formatter, "error", e)
	}
	for _, e := range r.Warnings {
		printFinding(formatter, "warning", e)
	}
}

func printFinding(formatter *OutputFormatter, severity string, e compiler.ValidationError) {
	if e.Line > 0 {
		fmt.Fprintf(formatter.Writer, "line %d\n", e.Line)
	}
	fmt.Fprintf(formatter.Writer, "  %s %s: %s: %s\n\n", severity, e.Code, e.Field, e.Message)
}
