package optree

import "github.com/roach88/sysplan/internal/ir"

func scan(table string) *Scan {
	return &Scan{Table: ir.ComponentID(table)}
}

func join(left, right Operator) *Join {
	return &Join{Left: left, Right: right}
}

func withTag(child Operator, tag string) *TagFilter {
	return &TagFilter{Child: child, Tag: ir.TagID(tag), Mode: Has}
}

func withoutTag(child Operator, tag string) *TagFilter {
	return &TagFilter{Child: child, Tag: ir.TagID(tag), Mode: HasNot}
}

func withComponent(child Operator, c string) *ComponentFilter {
	return &ComponentFilter{Child: child, Component: ir.ComponentID(c), Mode: Has}
}

func withoutComponent(child Operator, c string) *ComponentFilter {
	return &ComponentFilter{Child: child, Component: ir.ComponentID(c), Mode: HasNot}
}

func predicate(child Operator, p string) *PredicateFilter {
	return &PredicateFilter{Child: child, Predicate: ir.PredicateID(p)}
}

func foreach(child Operator, routines ...string) *Foreach {
	ids := make([]ir.RoutineID, len(routines))
	for i, r := range routines {
		ids[i] = ir.RoutineID(r)
	}
	return &Foreach{Child: child, Routines: ids}
}

// fullChain builds a tree exercising every filter stage:
// Foreach > Pred > WithComp > WithoutComp > WithTag > WithoutTag > Join(A, Join(B, C)).
func fullChain() *Foreach {
	core := join(scan("A"), join(scan("B"), scan("C")))
	return foreach(
		predicate(
			withComponent(
				withoutComponent(
					withTag(
						withoutTag(core, "Frozen"),
						"Player"),
					"Dead"),
				"Mass"),
			"isAlive"),
		"Move")
}
