// Package compiler turns CUE system declarations into query descriptors.
//
// A system is declared as a struct under the top-level "system" field:
//
//	system: Move: {
//		components:   ["Position", "Velocity"]
//		without_tags: ["Frozen"]
//		predicates:   ["isAlive"]
//		args:         ["dt"]
//	}
//
// The compiler checks structure only (field names and value types). It
// passes semantic problems such as an unknown kind or an empty component
// list through untouched so the planner can report them with a position.
package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/sysplan/internal/ir"
)

// Field names accepted inside a system struct.
const (
	fieldKind        = "kind"
	fieldRoutine     = "routine"
	fieldComponents  = "components"
	fieldWithTags    = "with_tags"
	fieldWithoutTags = "without_tags"
	fieldWith        = "with"
	fieldWithout     = "without"
	fieldPredicates  = "predicates"
	fieldArgs        = "args"
)

const msgRoutineRequired = "routine name is required"

var knownFields = map[string]bool{
	fieldKind:        true,
	fieldRoutine:     true,
	fieldComponents:  true,
	fieldWithTags:    true,
	fieldWithoutTags: true,
	fieldWith:        true,
	fieldWithout:     true,
	fieldPredicates:  true,
	fieldArgs:        true,
}

// CompileSystem parses one system struct into a Descriptor.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the system struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`system: Move: { components: ["Position"] }`)
//	d, err := CompileSystem(v.LookupPath(cue.ParsePath("system.Move")))
//
// kind defaults to "for_each" and routine defaults to the struct label.
func CompileSystem(v cue.Value) (*ir.Descriptor, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if v.IncompleteKind() != cue.StructKind {
		return nil, &CompileError{
			Field:   "system",
			Message: fmt.Sprintf("system must be a struct, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}

	label := ""
	if sels := v.Path().Selectors(); len(sels) > 0 {
		label = strings.Trim(sels[len(sels)-1].String(), `"`)
	}

	if err := checkFields(v); err != nil {
		return nil, err
	}

	d := &ir.Descriptor{
		Kind:    ir.OpForEach,
		Routine: ir.RoutineID(label),
		Pos:     toSourcePos(v.Pos()),
	}

	kind, ok, err := optionalString(v, fieldKind)
	if err != nil {
		return nil, err
	}
	if ok {
		d.Kind = ir.OperationKind(kind)
	}

	routine, ok, err := optionalString(v, fieldRoutine)
	if err != nil {
		return nil, err
	}
	if ok {
		d.Routine = ir.RoutineID(routine)
	}
	if d.Routine == "" {
		return nil, &CompileError{
			Field:   fieldRoutine,
			Message: msgRoutineRequired,
			Pos:     v.Pos(),
		}
	}

	if d.Components, err = idList[ir.ComponentID](v, fieldComponents); err != nil {
		return nil, err
	}
	if d.WithTags, err = idList[ir.TagID](v, fieldWithTags); err != nil {
		return nil, err
	}
	if d.WithoutTags, err = idList[ir.TagID](v, fieldWithoutTags); err != nil {
		return nil, err
	}
	if d.WithComponents, err = idList[ir.ComponentID](v, fieldWith); err != nil {
		return nil, err
	}
	if d.WithoutComponents, err = idList[ir.ComponentID](v, fieldWithout); err != nil {
		return nil, err
	}
	if d.Predicates, err = idList[ir.PredicateID](v, fieldPredicates); err != nil {
		return nil, err
	}
	if d.CtorArgs, err = idList[ir.CtorArg](v, fieldArgs); err != nil {
		return nil, err
	}

	return d, nil
}

// checkFields rejects fields the compiler does not understand, which are
// almost always typos ("without_tag") that would silently widen a query.
func checkFields(v cue.Value) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Label()
		if !knownFields[name] {
			return &CompileError{
				Field:   name,
				Message: fmt.Sprintf("unknown field %q", name),
				Pos:     iter.Value().Pos(),
			}
		}
	}
	return nil
}

func optionalString(v cue.Value, field string) (string, bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", false, nil
	}
	s, err := fv.String()
	if err != nil {
		return "", false, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("%s must be a string", field),
			Pos:     fv.Pos(),
		}
	}
	return s, true, nil
}

// idList reads an optional list of strings. Declaration order is kept.
func idList[T ~string](v cue.Value, field string) ([]T, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}

	iter, err := fv.List()
	if err != nil {
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("%s must be a list of strings", field),
			Pos:     fv.Pos(),
		}
	}

	out := []T{}
	for i := 0; iter.Next(); i++ {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("%s[%d]", field, i),
				Message: "must be a string",
				Pos:     iter.Value().Pos(),
			}
		}
		out = append(out, T(s))
	}
	return out, nil
}

func toSourcePos(pos token.Pos) ir.SourcePos {
	if !pos.IsValid() {
		return ir.SourcePos{}
	}
	return ir.SourcePos{
		File:   pos.Filename(),
		Line:   pos.Line(),
		Column: pos.Column(),
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
