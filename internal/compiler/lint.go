package compiler

import (
	"fmt"

	"github.com/roach88/sysplan/internal/ir"
)

// Lint warning codes (E200-E299). These descriptors still plan, but the
// resulting query is redundant or can never match.
const (
	ErrDuplicateID          = "E201" // identifier repeated within one list
	ErrTagRequiredExcluded  = "E202" // tag in both with_tags and without_tags
	ErrComponentContradicts = "E203" // component in both with and without
	ErrExcludedButScanned   = "E204" // component in both components and without
	ErrRequiredButScanned   = "E205" // component in both components and with
	ErrDuplicateRoutine     = "E206" // two systems share a routine name
)

// ValidationError represents a lint finding.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Lint checks one descriptor for contradictory or redundant filters.
// Returns all findings (does not fail-fast).
func Lint(d ir.Descriptor) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    code,
			Line:    d.Pos.Line,
		})
	}

	// E201: duplicates within a list
	for _, l := range []struct {
		field string
		ids   []string
	}{
		{fieldComponents, strs(d.Components)},
		{fieldWithTags, strs(d.WithTags)},
		{fieldWithoutTags, strs(d.WithoutTags)},
		{fieldWith, strs(d.WithComponents)},
		{fieldWithout, strs(d.WithoutComponents)},
		{fieldPredicates, strs(d.Predicates)},
	} {
		for _, id := range duplicates(l.ids) {
			add(l.field, ErrDuplicateID, "%q listed more than once", id)
		}
	}

	// E202: tag required and excluded
	for _, tag := range intersect(strs(d.WithTags), strs(d.WithoutTags)) {
		add(fieldWithoutTags, ErrTagRequiredExcluded,
			"tag %q is both required and excluded; the query matches nothing", tag)
	}

	// E203: component required and excluded
	for _, c := range intersect(strs(d.WithComponents), strs(d.WithoutComponents)) {
		add(fieldWithout, ErrComponentContradicts,
			"component %q is both required and excluded; the query matches nothing", c)
	}

	// E204: excluded component also scanned
	for _, c := range intersect(strs(d.Components), strs(d.WithoutComponents)) {
		add(fieldWithout, ErrExcludedButScanned,
			"component %q is scanned and excluded; the query matches nothing", c)
	}

	// E205: required component also scanned
	for _, c := range intersect(strs(d.Components), strs(d.WithComponents)) {
		add(fieldWith, ErrRequiredButScanned,
			"component %q is already scanned; the with filter is redundant", c)
	}

	return errs
}

// LintAll lints each descriptor and checks for routine names declared by
// more than one system.
func LintAll(ds []ir.Descriptor) []ValidationError {
	var errs []ValidationError
	seen := make(map[ir.RoutineID]ir.SourcePos)
	for _, d := range ds {
		errs = append(errs, Lint(d)...)

		if first, ok := seen[d.Routine]; ok {
			errs = append(errs, ValidationError{
				Field:   fieldRoutine,
				Message: fmt.Sprintf("routine %q already declared at %s", d.Routine, first),
				Code:    ErrDuplicateRoutine,
				Line:    d.Pos.Line,
			})
			continue
		}
		seen[d.Routine] = d.Pos
	}
	return errs
}

func strs[T ~string](ids []T) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// duplicates returns ids appearing more than once, in first-repeat order.
func duplicates(ids []string) []string {
	var dups []string
	count := make(map[string]int, len(ids))
	for _, id := range ids {
		count[id]++
		if count[id] == 2 {
			dups = append(dups, id)
		}
	}
	return dups
}

// intersect returns the members of a also in b, in a's order, once each.
func intersect(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, id := range b {
		inB[id] = true
	}
	var out []string
	for _, id := range a {
		if inB[id] {
			out = append(out, id)
			delete(inB, id)
		}
	}
	return out
}
