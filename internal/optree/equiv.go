package optree

// Equivalent reports whether two data-source subtrees are structurally
// identical: same variant at every position, same table, tag, component,
// mode and predicate identifiers, children equivalent pairwise.
//
// Join children are compared in order (no commutation). Comparison is
// top-down, left-to-right and stops at the first mismatch, so the cost is
// bounded by the smaller tree.
//
// Equivalent is defined only below Foreach. Foreach nodes are never
// equivalent to anything (merging compares their children instead), and
// nil or typed-nil nodes are never equivalent.
//
// Equivalent is an equivalence relation over well-formed subtrees:
// reflexive, symmetric and transitive.
func Equivalent(a, b Operator) bool {
	if isNil(a) || isNil(b) {
		return false
	}

	switch x := a.(type) {
	case *Scan:
		y, ok := b.(*Scan)
		return ok && x.Table == y.Table
	case *Join:
		y, ok := b.(*Join)
		return ok && Equivalent(x.Left, y.Left) && Equivalent(x.Right, y.Right)
	case *TagFilter:
		y, ok := b.(*TagFilter)
		return ok && x.Mode == y.Mode && x.Tag == y.Tag && Equivalent(x.Child, y.Child)
	case *ComponentFilter:
		y, ok := b.(*ComponentFilter)
		return ok && x.Mode == y.Mode && x.Component == y.Component && Equivalent(x.Child, y.Child)
	case *PredicateFilter:
		y, ok := b.(*PredicateFilter)
		return ok && x.Predicate == y.Predicate && Equivalent(x.Child, y.Child)
	case *Foreach:
		return false
	default:
		return false
	}
}
