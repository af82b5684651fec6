package optree

import "github.com/roach88/sysplan/internal/ir"

// Children returns the direct children of op in left-to-right order.
// A nil child is returned as nil so callers can detect malformed nodes.
func Children(op Operator) []Operator {
	switch n := op.(type) {
	case *Scan:
		return nil
	case *Join:
		return []Operator{n.Left, n.Right}
	case *TagFilter:
		return []Operator{n.Child}
	case *ComponentFilter:
		return []Operator{n.Child}
	case *PredicateFilter:
		return []Operator{n.Child}
	case *Foreach:
		return []Operator{n.Child}
	default:
		return nil
	}
}

// Walk visits op and its descendants depth-first, parents before children,
// left before right. Returning false from fn skips that node's children.
// Nil nodes are not visited.
func Walk(op Operator, fn func(Operator) bool) {
	if isNil(op) {
		return
	}
	if !fn(op) {
		return
	}
	for _, child := range Children(op) {
		Walk(child, fn)
	}
}

// Size returns the number of nodes in the tree rooted at op.
func Size(op Operator) int {
	n := 0
	Walk(op, func(Operator) bool {
		n++
		return true
	})
	return n
}

// Tables returns the tables scanned below op, in left-to-right order.
func Tables(op Operator) []ir.ComponentID {
	var tables []ir.ComponentID
	Walk(op, func(n Operator) bool {
		if scan, ok := n.(*Scan); ok {
			tables = append(tables, scan.Table)
		}
		return true
	})
	return tables
}

// SplitPredicates peels the chain of PredicateFilters at the top of op.
// It returns the predicate ids outermost first and the subtree below them.
// Predicates are outermost by construction, so what remains is evaluable
// without calling into external code.
func SplitPredicates(op Operator) ([]ir.PredicateID, Operator) {
	var preds []ir.PredicateID
	for {
		pf, ok := op.(*PredicateFilter)
		if !ok || pf == nil {
			return preds, op
		}
		preds = append(preds, pf.Predicate)
		op = pf.Child
	}
}

// isNil reports whether op is nil or a typed nil pointer.
func isNil(op Operator) bool {
	if op == nil {
		return true
	}
	switch n := op.(type) {
	case *Scan:
		return n == nil
	case *Join:
		return n == nil
	case *TagFilter:
		return n == nil
	case *ComponentFilter:
		return n == nil
	case *PredicateFilter:
		return n == nil
	case *Foreach:
		return n == nil
	}
	return false
}
