package optree

import "fmt"

// ValidationResult reports whether a tree is a well-formed plan root.
type ValidationResult struct {
	// WellFormed is true when Violations is empty.
	WellFormed bool

	// Violations lists every broken invariant found, in traversal order.
	Violations []string
}

// Validate checks that root is a well-formed plan tree:
//  1. root is a Foreach with a non-nil child and at least one routine
//  2. no Foreach appears below the root
//  3. no node has a nil child
//  4. below the Foreach, kinds follow the fixed order: predicate filters,
//     with-component, without-component, with-tag, without-tag filters,
//     then a join/scan core containing only Join and Scan nodes
//
// Validate reports all violations (it does not stop at the first) and is a
// pure function with no side effects.
func Validate(root Operator) ValidationResult {
	v := &validator{violations: []string{}}
	v.validateRoot(root)

	return ValidationResult{
		WellFormed: len(v.violations) == 0,
		Violations: v.violations,
	}
}

// validator accumulates violations during traversal.
type validator struct {
	violations []string
}

func (v *validator) addViolation(format string, args ...any) {
	v.violations = append(v.violations, fmt.Sprintf(format, args...))
}

// stage numbers the fixed filter order below Foreach, outermost first.
type stage int

const (
	stagePredicate stage = iota
	stageWithComponent
	stageWithoutComponent
	stageWithTag
	stageWithoutTag
	stageCore
)

func (s stage) String() string {
	switch s {
	case stagePredicate:
		return "predicate filter"
	case stageWithComponent:
		return "with-component filter"
	case stageWithoutComponent:
		return "without-component filter"
	case stageWithTag:
		return "with-tag filter"
	case stageWithoutTag:
		return "without-tag filter"
	default:
		return "join/scan core"
	}
}

func stageOf(op Operator) stage {
	switch n := op.(type) {
	case *PredicateFilter:
		return stagePredicate
	case *ComponentFilter:
		if n.Mode == HasNot {
			return stageWithoutComponent
		}
		return stageWithComponent
	case *TagFilter:
		if n.Mode == HasNot {
			return stageWithoutTag
		}
		return stageWithTag
	default:
		return stageCore
	}
}

func (v *validator) validateRoot(root Operator) {
	if isNil(root) {
		v.addViolation("nil root - plan requires a Foreach root")
		return
	}

	fe, ok := root.(*Foreach)
	if !ok {
		v.addViolation("root is %s - plan requires a Foreach root", root.Kind())
		v.validateSource(root)
		return
	}

	if len(fe.Routines) == 0 {
		v.addViolation("Foreach has no routines")
	}
	if isNil(fe.Child) {
		v.addViolation("Foreach has nil child")
		return
	}
	v.validateSource(fe.Child)
}

// validateSource walks the filter chain below Foreach, checking the fixed
// order, then validates the core.
func (v *validator) validateSource(op Operator) {
	last := stagePredicate
	for {
		if isNil(op) {
			v.addViolation("%s has nil child", last)
			return
		}
		if _, ok := op.(*Foreach); ok {
			v.addViolation("Foreach below root - Foreach must be terminal")
			return
		}

		s := stageOf(op)
		if s < last {
			v.addViolation("%s below %s - fixed filter order violated", s, last)
		}
		last = s

		if s == stageCore {
			v.validateCore(op)
			return
		}
		op = Children(op)[0]
	}
}

// validateCore checks that only Join and Scan nodes appear in the core.
func (v *validator) validateCore(op Operator) {
	switch n := op.(type) {
	case *Scan:
		return
	case *Join:
		for i, child := range []Operator{n.Left, n.Right} {
			if isNil(child) {
				side := "left"
				if i == 1 {
					side = "right"
				}
				v.addViolation("Join has nil %s child", side)
				continue
			}
			v.validateCore(child)
		}
	case *Foreach:
		v.addViolation("Foreach below root - Foreach must be terminal")
	default:
		v.addViolation("%s inside join/scan core - filters must wrap the core", op.Kind())
	}
}
