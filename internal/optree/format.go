package optree

import (
	"fmt"
	"strings"
)

// Label returns a one-line description of op without its children.
func Label(op Operator) string {
	switch n := op.(type) {
	case *Scan:
		return fmt.Sprintf("Scan(%s)", n.Table)
	case *Join:
		return "Join"
	case *TagFilter:
		return fmt.Sprintf("TagFilter(%s %s)", n.Mode, n.Tag)
	case *ComponentFilter:
		return fmt.Sprintf("ComponentFilter(%s %s)", n.Mode, n.Component)
	case *PredicateFilter:
		return fmt.Sprintf("PredicateFilter(%s)", n.Predicate)
	case *Foreach:
		names := make([]string, len(n.Routines))
		for i, r := range n.Routines {
			names[i] = string(r)
		}
		return fmt.Sprintf("Foreach(%s)", strings.Join(names, ", "))
	default:
		return "<nil>"
	}
}

// Format renders the tree rooted at op, one node per line, children
// indented two spaces below their parent. The output is deterministic and
// ends with a newline.
//
//	Foreach(Move)
//	  Join
//	    Scan(Position)
//	    Scan(Velocity)
func Format(op Operator) string {
	var b strings.Builder
	formatNode(&b, op, 0)
	return b.String()
}

func formatNode(b *strings.Builder, op Operator, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	if isNil(op) {
		b.WriteString("<nil>\n")
		return
	}
	b.WriteString(Label(op))
	b.WriteByte('\n')
	for _, child := range Children(op) {
		formatNode(b, child, depth+1)
	}
}

// FormatDOT renders a plan forest as a Graphviz digraph. Nodes are keyed by
// identity, so a data-source subtree shared by several Foreach roots is
// drawn once with an edge from each root.
func FormatDOT(roots []*Foreach) string {
	var b strings.Builder
	b.WriteString("digraph Plan {\n")
	b.WriteString("  rankdir=TB;\n")

	ids := make(map[Operator]string)
	var visit func(op Operator) string
	visit = func(op Operator) string {
		if id, ok := ids[op]; ok {
			return id
		}
		id := fmt.Sprintf("n%d", len(ids)+1)
		ids[op] = id

		shape := "box"
		if _, ok := op.(*Foreach); ok {
			shape = "doubleoctagon"
		}
		fmt.Fprintf(&b, "  %s [label=%q, shape=%s];\n", id, Label(op), shape)
		for _, child := range Children(op) {
			if isNil(child) {
				continue
			}
			childID := visit(child)
			fmt.Fprintf(&b, "  %s -> %s;\n", id, childID)
		}
		return id
	}

	for _, root := range roots {
		if root == nil {
			continue
		}
		visit(root)
	}

	b.WriteString("}\n")
	return b.String()
}
