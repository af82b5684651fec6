package planner

import (
	"errors"
	"fmt"

	"github.com/roach88/sysplan/internal/ir"
	"github.com/roach88/sysplan/internal/optree"
)

// ErrorKind categorizes planning errors.
type ErrorKind string

const (
	// ErrUnsupportedOperationKind: the descriptor asks for an operation kind
	// other than for_each.
	ErrUnsupportedOperationKind ErrorKind = "UNSUPPORTED_OPERATION_KIND"

	// ErrEmptyComponentList: the descriptor declares no component types.
	ErrEmptyComponentList ErrorKind = "EMPTY_COMPONENT_LIST"

	// ErrMalformedForeach: a tree reached the merger without being a
	// well-formed single-rooted Foreach tree.
	ErrMalformedForeach ErrorKind = "MALFORMED_FOREACH"
)

// Internal reports whether the kind signals a broken planner invariant
// rather than bad input.
func (k ErrorKind) Internal() bool {
	return k == ErrMalformedForeach
}

// Diagnostic describes one planning problem.
//
// Descriptor is set for descriptor errors, Node for internal errors. Pos is
// the location context the caller needs to point at the declaration.
type Diagnostic struct {
	Kind       ErrorKind
	Descriptor *ir.Descriptor
	Node       optree.Operator
	Pos        ir.SourcePos
	Message    string
}

// Reporter receives diagnostics as the planner encounters them.
// Diagnostics arrive in descriptor order regardless of build parallelism.
type Reporter func(Diagnostic)

// Error is the error value returned for a Diagnostic.
type Error struct {
	Diagnostic
}

// Error implements the error interface.
func (e *Error) Error() string {
	subject := ""
	if e.Descriptor != nil {
		subject = fmt.Sprintf(" (routine=%s)", e.Descriptor.Routine)
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s%s", e.Pos, e.Kind, e.Message, subject)
	}
	return fmt.Sprintf("%s: %s%s", e.Kind, e.Message, subject)
}

func newDescriptorError(kind ErrorKind, d ir.Descriptor, format string, args ...any) *Error {
	return &Error{Diagnostic{
		Kind:       kind,
		Descriptor: &d,
		Pos:        d.Pos,
		Message:    fmt.Sprintf(format, args...),
	}}
}

func newInternalError(node optree.Operator, origin *ir.Descriptor, format string, args ...any) *Error {
	diag := Diagnostic{
		Kind:    ErrMalformedForeach,
		Node:    node,
		Message: fmt.Sprintf(format, args...),
	}
	if origin != nil {
		diag.Descriptor = origin
		diag.Pos = origin.Pos
	}
	return &Error{diag}
}

// KindOf extracts the ErrorKind from err.
// Uses errors.As to handle wrapped errors.
func KindOf(err error) (ErrorKind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}

// IsDescriptorError returns true if err is a recoverable descriptor error.
func IsDescriptorError(err error) bool {
	kind, ok := KindOf(err)
	return ok && !kind.Internal()
}

// IsInternalError returns true if err signals a broken planner invariant.
func IsInternalError(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind.Internal()
}
