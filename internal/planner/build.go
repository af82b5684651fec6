package planner

import (
	"github.com/roach88/sysplan/internal/ir"
	"github.com/roach88/sysplan/internal/optree"
)

// Build turns one descriptor into a Foreach-rooted operator tree.
//
// The join/scan core is built from Components, then wrapped inside-out by
// without-tag, with-tag, without-component, with-component and predicate
// filters, then by the Foreach. Within each group the first declared
// identifier ends up outermost, so reading the tree downward from the
// Foreach visits each group in declaration order. Empty groups add no node.
//
// Build rejects unsupported operation kinds and empty component lists with
// an *Error; it never guesses an interpretation. It is pure: identical
// descriptors yield structurally identical trees.
func Build(d ir.Descriptor) (*optree.Foreach, error) {
	if !d.Kind.Supported() {
		return nil, newDescriptorError(ErrUnsupportedOperationKind, d,
			"operation kind %q is not supported, only %q is", d.Kind, ir.OpForEach)
	}
	if len(d.Components) == 0 {
		return nil, newDescriptorError(ErrEmptyComponentList, d,
			"at least one component type is required")
	}

	src := buildCore(d.Components)
	src = wrapTags(src, d.WithoutTags, optree.HasNot)
	src = wrapTags(src, d.WithTags, optree.Has)
	src = wrapComponents(src, d.WithoutComponents, optree.HasNot)
	src = wrapComponents(src, d.WithComponents, optree.Has)
	src = wrapPredicates(src, d.Predicates)

	return &optree.Foreach{
		Child:    src,
		Routines: []ir.RoutineID{d.Routine},
	}, nil
}

// buildCore builds the right-nested join of the component scans.
// [T0] yields Scan(T0); [T0..Tn-1] yields Join(Scan(T0), Join(... Join(Scan(Tn-2), Scan(Tn-1)))).
func buildCore(components []ir.ComponentID) optree.Operator {
	n := len(components)
	if n == 1 {
		return &optree.Scan{Table: components[0]}
	}

	var root optree.Operator = &optree.Join{
		Left:  &optree.Scan{Table: components[n-2]},
		Right: &optree.Scan{Table: components[n-1]},
	}
	for i := n - 3; i >= 0; i-- {
		root = &optree.Join{
			Left:  &optree.Scan{Table: components[i]},
			Right: root,
		}
	}
	return root
}

// The wrap helpers iterate in reverse so the first declared filter is the
// outermost node of its group.

func wrapTags(child optree.Operator, tags []ir.TagID, mode optree.FilterMode) optree.Operator {
	for i := len(tags) - 1; i >= 0; i-- {
		child = &optree.TagFilter{Child: child, Tag: tags[i], Mode: mode}
	}
	return child
}

func wrapComponents(child optree.Operator, components []ir.ComponentID, mode optree.FilterMode) optree.Operator {
	for i := len(components) - 1; i >= 0; i-- {
		child = &optree.ComponentFilter{Child: child, Component: components[i], Mode: mode}
	}
	return child
}

func wrapPredicates(child optree.Operator, preds []ir.PredicateID) optree.Operator {
	for i := len(preds) - 1; i >= 0; i-- {
		child = &optree.PredicateFilter{Child: child, Predicate: preds[i]}
	}
	return child
}
