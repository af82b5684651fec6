package planner

import (
	"github.com/roach88/sysplan/internal/ir"
	"github.com/roach88/sysplan/internal/optree"
)

// Origin records which descriptor contributed a routine to an entry.
type Origin struct {
	Descriptor ir.Descriptor

	// Key is the descriptor's data-source key (ir.DataSourceKey).
	// Origins share a key exactly when their subtrees are equivalent.
	Key string

	// Hash identifies the descriptor itself (ir.DescriptorHash).
	Hash string
}

// Entry is one Foreach root of a plan together with the descriptors merged
// into it. Origins are parallel to Root.Routines.
type Entry struct {
	Root    *optree.Foreach
	Origins []Origin
}

// Shared reports whether more than one routine runs over this entry's data.
func (e Entry) Shared() bool {
	return len(e.Root.Routines) > 1
}

// Plan is the result of planning a set of descriptors.
type Plan struct {
	// Entries are in first-seen descriptor order.
	Entries []Entry

	// Diagnostics lists every descriptor error reported during planning,
	// in descriptor order.
	Diagnostics []Diagnostic
}

// Roots returns the Foreach roots of the plan in entry order.
func (p *Plan) Roots() []*optree.Foreach {
	roots := make([]*optree.Foreach, len(p.Entries))
	for i, e := range p.Entries {
		roots[i] = e.Root
	}
	return roots
}

// EntryFor returns the entry that runs routine. If several descriptors
// share a routine id, the first entry containing it wins.
func (p *Plan) EntryFor(routine ir.RoutineID) (*Entry, bool) {
	for i := range p.Entries {
		for _, r := range p.Entries[i].Root.Routines {
			if r == routine {
				return &p.Entries[i], true
			}
		}
	}
	return nil, false
}

// Stats summarizes how much sharing merging achieved.
type Stats struct {
	Descriptors   int `json:"descriptors"`
	Entries       int `json:"entries"`
	SharedEntries int `json:"shared_entries"`

	// ScansSaved counts Scan nodes that would have been evaluated again
	// without merging.
	ScansSaved int `json:"scans_saved"`
}

// Stats computes sharing statistics for the plan.
func (p *Plan) Stats() Stats {
	var s Stats
	s.Entries = len(p.Entries)
	for _, e := range p.Entries {
		s.Descriptors += len(e.Origins)
		if e.Shared() {
			s.SharedEntries++
			s.ScansSaved += (len(e.Root.Routines) - 1) * len(optree.Tables(e.Root.Child))
		}
	}
	return s
}
