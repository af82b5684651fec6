// Package querysql compiles data-source subtrees of an operator tree to
// parameterized SQLite SQL over the world store schema.
package querysql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/sysplan/internal/ir"
	"github.com/roach88/sysplan/internal/optree"
)

// ErrUnsupportedNode is returned for nodes that have no SQL form.
// Predicates call back into routine code and Foreach is not a data source.
var ErrUnsupportedNode = errors.New("node has no SQL form")

// orderBy terminates every top-level statement so row order is stable.
const orderBy = " ORDER BY t0.entity_id COLLATE BINARY ASC"

// SQLCompiler compiles data-source subtrees to SQL returning one
// entity_id column.
//
// CRITICAL: ALL queries include ORDER BY for deterministic row order.
// CRITICAL: All identifiers from the tree are parameterized, never
// interpolated.
type SQLCompiler struct {
	// ComponentsTable and TagsTable name the store tables.
	ComponentsTable string
	TagsTable       string
}

// NewSQLCompiler creates a SQLCompiler for the default store schema.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{
		ComponentsTable: "components",
		TagsTable:       "tags",
	}
}

// Query is the compiled data source of a plan entry.
type Query struct {
	SQL    string
	Params []any

	// Predicates must be applied, in order, to every row SQL returns.
	Predicates []ir.PredicateID
}

// CompileEntry compiles the data source below a Foreach root. The leading
// predicate filters are split off and returned for the caller to evaluate.
func (c *SQLCompiler) CompileEntry(root *optree.Foreach) (Query, error) {
	if root == nil {
		return Query{}, fmt.Errorf("cannot compile nil entry")
	}
	preds, rest := optree.SplitPredicates(root.Child)
	sql, params, err := c.Compile(rest)
	if err != nil {
		return Query{}, err
	}
	return Query{SQL: sql, Params: params, Predicates: preds}, nil
}

// Compile converts a data-source subtree to parameterized SQL.
// Returns (sql, params, error) tuple.
//
// Joins are flattened: every leaf of the join tree becomes an aliased
// relation (t0, t1, ...) inner-joined on entity_id with t0. Tag and
// component filters become IN / NOT IN subqueries on t0.entity_id.
func (c *SQLCompiler) Compile(op optree.Operator) (string, []any, error) {
	sql, params, err := c.compileSelect(op)
	if err != nil {
		return "", nil, err
	}
	return sql + orderBy, params, nil
}

// compileSelect compiles op without the trailing ORDER BY so it can be
// nested as a derived table.
func (c *SQLCompiler) compileSelect(op optree.Operator) (string, []any, error) {
	if op == nil {
		return "", nil, fmt.Errorf("cannot compile nil operator")
	}

	// Peel the filter chain, outermost first.
	var conds []string
	var condParams []any
	for {
		cond, param, ok := c.compileFilter(op)
		if !ok {
			break
		}
		conds = append(conds, cond)
		condParams = append(condParams, param)
		op = optree.Children(op)[0]
		if op == nil {
			return "", nil, fmt.Errorf("filter has nil child")
		}
	}

	leaves, err := joinLeaves(op)
	if err != nil {
		return "", nil, err
	}

	var from strings.Builder
	var fromParams []any
	var where []string
	var whereParams []any

	for i, leaf := range leaves {
		alias := fmt.Sprintf("t%d", i)
		var rel string
		switch n := leaf.(type) {
		case *optree.Scan:
			rel = fmt.Sprintf("%s AS %s", c.ComponentsTable, alias)
			if i == 0 {
				where = append(where, alias+".component = ?")
				whereParams = append(whereParams, string(n.Table))
			}
		default:
			sub, subParams, err := c.compileSelect(leaf)
			if err != nil {
				return "", nil, err
			}
			rel = fmt.Sprintf("(%s) AS %s", sub, alias)
			fromParams = append(fromParams, subParams...)
		}

		if i == 0 {
			from.WriteString(rel)
			continue
		}
		fmt.Fprintf(&from, " INNER JOIN %s ON %s.entity_id = t0.entity_id", rel, alias)
		if scan, ok := leaf.(*optree.Scan); ok {
			fmt.Fprintf(&from, " AND %s.component = ?", alias)
			fromParams = append(fromParams, string(scan.Table))
		}
	}

	where = append(where, conds...)
	whereParams = append(whereParams, condParams...)

	sql := "SELECT t0.entity_id FROM " + from.String()
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}

	params := append(fromParams, whereParams...)
	return sql, params, nil
}

// compileFilter returns the WHERE fragment for a tag or component filter.
// CRITICAL: Value is NEVER interpolated - always parameterized.
func (c *SQLCompiler) compileFilter(op optree.Operator) (string, any, bool) {
	var table, column string
	var mode optree.FilterMode
	var value string

	switch n := op.(type) {
	case *optree.TagFilter:
		table, column, mode, value = c.TagsTable, "tag", n.Mode, string(n.Tag)
	case *optree.ComponentFilter:
		table, column, mode, value = c.ComponentsTable, "component", n.Mode, string(n.Component)
	default:
		return "", nil, false
	}

	in := "IN"
	if mode == optree.HasNot {
		in = "NOT IN"
	}
	return fmt.Sprintf("t0.entity_id %s (SELECT entity_id FROM %s WHERE %s = ?)", in, table, column), value, true
}

// joinLeaves returns the leaves of the join tree rooted at op, left to
// right. A non-join op is its own single leaf.
func joinLeaves(op optree.Operator) ([]optree.Operator, error) {
	switch n := op.(type) {
	case *optree.Join:
		if n.Left == nil || n.Right == nil {
			return nil, fmt.Errorf("join has nil child")
		}
		left, err := joinLeaves(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := joinLeaves(n.Right)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil
	case *optree.Scan:
		return []optree.Operator{n}, nil
	case *optree.TagFilter, *optree.ComponentFilter:
		return []optree.Operator{n}, nil
	case *optree.PredicateFilter:
		return nil, fmt.Errorf("PredicateFilter(%s): %w", n.Predicate, ErrUnsupportedNode)
	case *optree.Foreach:
		return nil, fmt.Errorf("Foreach: %w", ErrUnsupportedNode)
	default:
		return nil, fmt.Errorf("unsupported operator type: %T", op)
	}
}
