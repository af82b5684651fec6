package planner

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/sysplan/internal/ir"
	"github.com/roach88/sysplan/internal/optree"
)

// Merge clusters roots whose data-source subtrees are Equivalent.
//
// The output holds one Foreach per equivalence class, in first-seen order.
// Each output Foreach is a fresh node whose Child is the representative's
// child (the same node, not a copy) and whose Routines are the
// representative's routines followed by every later member's routines in
// input order. Inputs are never mutated.
//
// Every input must be a well-formed Foreach root (see optree.Validate);
// otherwise Merge returns an internal error of kind ErrMalformedForeach.
//
// The scan is quadratic in the number of roots.
func Merge(roots []optree.Operator) ([]*optree.Foreach, error) {
	entries := make([]Entry, len(roots))
	for i, r := range roots {
		fe, ok := r.(*optree.Foreach)
		if !ok || fe == nil {
			return nil, malformed(r)
		}
		entries[i] = Entry{Root: fe}
	}

	merged, err := mergeEntries(entries, discardLogger)
	if err != nil {
		return nil, err
	}

	out := make([]*optree.Foreach, len(merged))
	for i, e := range merged {
		out[i] = e.Root
	}
	return out, nil
}

// mergeEntries is Merge over entries, carrying origins along with routines.
func mergeEntries(entries []Entry, logger *slog.Logger) ([]Entry, error) {
	var reps []Entry
	for _, e := range entries {
		if err := checkRoot(e); err != nil {
			return nil, err
		}

		idx := slices.IndexFunc(reps, func(rep Entry) bool {
			return optree.Equivalent(rep.Root.Child, e.Root.Child)
		})
		if idx < 0 {
			reps = append(reps, Entry{
				Root: &optree.Foreach{
					Child:    e.Root.Child,
					Routines: slices.Clone(e.Root.Routines),
				},
				Origins: slices.Clone(e.Origins),
			})
			continue
		}

		rep := &reps[idx]
		rep.Root.Routines = append(rep.Root.Routines, e.Root.Routines...)
		rep.Origins = append(rep.Origins, e.Origins...)
		logger.Debug("merged routines into shared data source",
			"routines", e.Root.Routines,
			"into", rep.Root.Routines[0],
		)
	}
	return reps, nil
}

func checkRoot(e Entry) error {
	if e.Root == nil {
		return newInternalError(nil, originOf(e), "expected a Foreach root, got nil")
	}
	res := optree.Validate(e.Root)
	if !res.WellFormed {
		return newInternalError(e.Root, originOf(e),
			"tree is not a well-formed Foreach root: %s", strings.Join(res.Violations, "; "))
	}
	return nil
}

func malformed(node optree.Operator) error {
	kind := "nil"
	if node != nil {
		kind = node.Kind().String()
	}
	return newInternalError(node, nil, "expected a Foreach root, got %s", kind)
}

func originOf(e Entry) *ir.Descriptor {
	if len(e.Origins) == 0 {
		return nil
	}
	d := e.Origins[0].Descriptor
	return &d
}
