package optree

import "github.com/roach88/sysplan/internal/ir"

// Operator is a node of an operator tree.
//
// This is a sealed interface - only types in this package implement it.
// Every variant is a pointer type so node identity is observable; the merge
// pass relies on it to share subtrees.
type Operator interface {
	// Kind reports the variant tag.
	Kind() Kind

	operatorNode() // Marker method - seals interface to this package
}

// Kind is the variant tag of an Operator.
type Kind int

const (
	KindScan Kind = iota
	KindJoin
	KindTagFilter
	KindComponentFilter
	KindPredicateFilter
	KindForeach
)

func (k Kind) String() string {
	switch k {
	case KindScan:
		return "Scan"
	case KindJoin:
		return "Join"
	case KindTagFilter:
		return "TagFilter"
	case KindComponentFilter:
		return "ComponentFilter"
	case KindPredicateFilter:
		return "PredicateFilter"
	case KindForeach:
		return "Foreach"
	default:
		return "Unknown"
	}
}

// FilterMode selects whether a tag or component must be present or absent.
type FilterMode int

const (
	// Has keeps rows whose entity carries the tag or component.
	Has FilterMode = iota
	// HasNot keeps rows whose entity does not carry it.
	HasNot
)

func (m FilterMode) String() string {
	if m == HasNot {
		return "has_not"
	}
	return "has"
}

// Scan reads every entity id from one component table.
// It is the only childless variant.
type Scan struct {
	Table ir.ComponentID
}

func (*Scan) Kind() Kind { return KindScan }
func (*Scan) operatorNode() {}

// Join keeps the entity ids present in both inputs (inner join).
// Left and Right are never commuted: declaration order fixes the shape.
type Join struct {
	Left  Operator
	Right Operator
}

func (*Join) Kind() Kind { return KindJoin }
func (*Join) operatorNode() {}

// TagFilter keeps rows by presence or absence of a tag.
type TagFilter struct {
	Child Operator
	Tag   ir.TagID
	Mode  FilterMode
}

func (*TagFilter) Kind() Kind { return KindTagFilter }
func (*TagFilter) operatorNode() {}

// ComponentFilter keeps rows by presence or absence of a component,
// without reading the component's data.
type ComponentFilter struct {
	Child     Operator
	Component ir.ComponentID
	Mode      FilterMode
}

func (*ComponentFilter) Kind() Kind { return KindComponentFilter }
func (*ComponentFilter) operatorNode() {}

// PredicateFilter keeps rows for which an external predicate holds.
type PredicateFilter struct {
	Child     Operator
	Predicate ir.PredicateID
}

func (*PredicateFilter) Kind() Kind { return KindPredicateFilter }
func (*PredicateFilter) operatorNode() {}

// Foreach applies its routines, in order, to every row of its child.
// It is terminal: always a root, never a child. After merging, Routines
// lists the representative's routines first, then every merged routine in
// first-seen order.
type Foreach struct {
	Child    Operator
	Routines []ir.RoutineID
}

func (*Foreach) Kind() Kind { return KindForeach }
func (*Foreach) operatorNode() {}
