// Package optree defines the operator tree the planner builds for each
// routine's query.
//
// ARCHITECTURE:
//
// An operator tree describes how rows (entity ids) flow from component
// tables to the routine that consumes them:
//
//	Foreach(routines...)          terminal, always the root
//	  PredicateFilter(p)          external predicate per row
//	    ComponentFilter(has C)    entity must / must not hold C
//	      TagFilter(has_not T)    entity must / must not carry T
//	        Join                  inner join on entity id
//	          Scan(A)
//	          Scan(B)
//
// Everything below the Foreach is the data-source subtree. Two routines
// whose data-source subtrees are Equivalent can share one physical subtree;
// the planner's merge pass does exactly that.
//
// SEALED INTERFACE:
//
// Operator is sealed with an unexported marker method. Only the six variants
// in this package implement it, so a type switch over them is exhaustive:
//
//	switch op := op.(type) {
//	case *Scan:
//	case *Join:
//	case *TagFilter:
//	case *ComponentFilter:
//	case *PredicateFilter:
//	case *Foreach:
//	}
//
// OWNERSHIP:
//
// Each node owns its children exclusively. The one deliberate exception is a
// data-source subtree shared by several Foreach nodes after merging, which
// turns the plan forest into a DAG at the data-source level. No cycles are
// ever introduced. Trees are read-only once a plan is finalized.
//
// FIXED SHAPE:
//
// Below the Foreach, reading downward, node kinds appear in this order:
// predicate filters, with-component filters, without-component filters,
// with-tag filters, without-tag filters, then the join/scan core. Validate
// checks this shape.
package optree
