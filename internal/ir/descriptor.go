package ir

import "fmt"

// OperationKind selects how a routine is applied to the rows of its query.
type OperationKind string

const (
	// OpForEach applies the routine once per matching entity.
	OpForEach OperationKind = "for_each"

	// OpUnknown marks a declaration whose kind could not be recognized.
	OpUnknown OperationKind = "unknown"
)

// Supported reports whether the planner can build a tree for this kind.
func (k OperationKind) Supported() bool {
	return k == OpForEach
}

// RoutineID identifies the routine invoked per matching row.
type RoutineID string

// ComponentID identifies a component type (and therefore a component table).
type ComponentID string

// TagID identifies a boolean marker attachable to an entity.
type TagID string

// PredicateID identifies an external boolean function applied per row.
type PredicateID string

// CtorArg is an argument expression passed through to code generation.
// The planner never inspects it.
type CtorArg string

// SourcePos locates a declaration for diagnostics.
// The zero value means the position is unknown.
type SourcePos struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// IsValid reports whether the position carries a line number.
func (p SourcePos) IsValid() bool {
	return p.Line > 0
}

func (p SourcePos) String() string {
	if !p.IsValid() {
		return "-"
	}
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Descriptor is one routine's declared query.
//
// Descriptors are produced once per compilation run and treated as
// immutable afterwards. Components must be non-empty for the descriptor to
// be plannable; the planner reports an empty list rather than guessing.
type Descriptor struct {
	Kind              OperationKind `json:"kind"`
	Routine           RoutineID     `json:"routine"`
	Components        []ComponentID `json:"components"`
	WithTags          []TagID       `json:"with_tags,omitempty"`
	WithoutTags       []TagID       `json:"without_tags,omitempty"`
	WithComponents    []ComponentID `json:"with_components,omitempty"`
	WithoutComponents []ComponentID `json:"without_components,omitempty"`
	Predicates        []PredicateID `json:"predicates,omitempty"`
	CtorArgs          []CtorArg     `json:"ctor_args,omitempty"`
	Pos               SourcePos     `json:"pos"`
}

// String returns a short label used in logs and diagnostics.
func (d Descriptor) String() string {
	if d.Pos.IsValid() {
		return fmt.Sprintf("%s (%s)", d.Routine, d.Pos)
	}
	return string(d.Routine)
}
