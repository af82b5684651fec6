package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/sysplan/internal/compiler"
	"github.com/roach88/sysplan/internal/ir"
	"github.com/roach88/sysplan/internal/planner"
)

// loadDescriptors loads every system declared in specsDir. Load and
// compile errors are written through formatter and returned as a command
// error.
func loadDescriptors(formatter *OutputFormatter, specsDir string) ([]ir.Descriptor, error) {
	result, errs := compiler.LoadDir(specsDir, compiler.LoadModeCollectAll)
	if len(errs) > 0 {
		return nil, outputLoadErrors(formatter, errs)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", result.FileCount, specsDir)
	for _, d := range result.Descriptors {
		formatter.VerboseLog("Loaded system: %s", d.Routine)
	}
	return result.Descriptors, nil
}

// planDescriptors plans ds, routing planner debug output to the default
// logger. Descriptor diagnostics stay in the returned plan; an internal
// planner error becomes an ExitInternalError.
func planDescriptors(formatter *OutputFormatter, ds []ir.Descriptor, opts ...planner.Option) (*planner.Plan, error) {
	opts = append([]planner.Option{planner.WithLogger(slog.Default())}, opts...)
	plan, err := planner.New(opts...).Plan(ds)
	if err != nil {
		code := ErrCodeInternal
		if kind, ok := planner.KindOf(err); ok {
			code = string(kind)
		}
		_ = formatter.Error(code, err.Error(), nil)
		return nil, WrapExitError(ExitInternalError, "planner invariant violated", err)
	}
	return plan, nil
}

// loadError flattens loader and compiler errors into a CLI error.
func loadError(err error) CLIError {
	var le *compiler.LoadError
	if errors.As(err, &le) {
		e := CLIError{Code: le.Code, Message: le.Message}
		if le.Pos.IsValid() {
			e.Details = fmt.Sprintf("%s:%d:%d", le.Pos.Filename(), le.Pos.Line(), le.Pos.Column())
		}
		return e
	}
	return CLIError{Code: ErrCodeGeneric, Message: err.Error()}
}

// outputLoadErrors outputs every load error and returns a command error.
func outputLoadErrors(formatter *OutputFormatter, errs []error) error {
	cliErrors := make([]CLIError, len(errs))
	for i, err := range errs {
		cliErrors[i] = loadError(err)
	}

	if formatter.Format == "json" {
		if err := formatter.Failure(cliErrors, cliErrors[0].Code, cliErrors[0].Message); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("loading failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Loading failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range cliErrors {
		if e.Details != nil {
			fmt.Fprintf(formatter.Writer, "%s\n", e.Details)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", e.Code, e.Message)
	}

	return NewExitError(ExitCommandError, fmt.Sprintf("loading failed with %d error(s)", len(errs)))
}

// diagnosticOutput is the printable form of a planner diagnostic.
type diagnosticOutput struct {
	Kind    string `json:"kind"`
	Routine string `json:"routine,omitempty"`
	Pos     string `json:"pos,omitempty"`
	Message string `json:"message"`
}

func diagnosticsOf(plan *planner.Plan) []diagnosticOutput {
	out := make([]diagnosticOutput, len(plan.Diagnostics))
	for i, d := range plan.Diagnostics {
		out[i] = diagnosticOutput{Kind: string(d.Kind), Message: d.Message}
		if d.Descriptor != nil {
			out[i].Routine = string(d.Descriptor.Routine)
		}
		if d.Pos.IsValid() {
			out[i].Pos = d.Pos.String()
		}
	}
	return out
}

func (d diagnosticOutput) String() string {
	s := fmt.Sprintf("%s: %s", d.Kind, d.Message)
	if d.Routine != "" {
		s += fmt.Sprintf(" (routine=%s)", d.Routine)
	}
	if d.Pos != "" {
		s = d.Pos + ": " + s
	}
	return s
}
