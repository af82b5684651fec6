// Package planner turns query descriptors into operator trees and merges
// trees whose data sources are structurally identical.
//
// Planning runs in two phases:
//
//	descriptors --Build--> one Foreach root per descriptor --Merge--> Plan
//
// Build is a pure function of one descriptor. Identical descriptors always
// yield structurally identical trees, which is what makes merging possible.
// Building is independent per descriptor and may run on several goroutines
// (WithWorkers); the result does not depend on scheduling.
//
// Merge clusters roots by the Equivalent relation over their data-source
// subtrees. The first-seen root of each class becomes its representative;
// later members contribute their routines (appended in order) and their
// origins, and their own subtree is discarded. Output order is first-seen
// order, so the result is deterministic.
//
// ERRORS:
//
// Descriptor errors (UNSUPPORTED_OPERATION_KIND, EMPTY_COMPONENT_LIST) are
// reported through the Reporter and skip only the offending descriptor.
// Internal errors (MALFORMED_FOREACH) mean an invariant of this package was
// broken; they are reported and abort planning for the whole run. Failing to
// find a merge partner is not an error.
//
// The planner never formats diagnostics for humans or writes to any output;
// that is the caller's job.
package planner
