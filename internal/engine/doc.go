// Package engine executes a merged plan against the entity world.
//
// The engine is the reference consumer of a planner.Plan: it shows that
// merging is observable only as saved work, never as changed results.
//
// ARCHITECTURE:
//
// One Run is one tick. For each plan entry, in plan order:
//  1. The data source below the Foreach is compiled to SQL (querysql) and
//     evaluated exactly once, however many routines share it.
//  2. The leading predicate filters are applied in Go, outermost first,
//     short-circuiting per entity.
//  3. For each matching entity, in ORDER BY entity_id order, every routine
//     of the Foreach is invoked in list order.
//
// Execution is single-goroutine and deterministic: the same world and plan
// produce the same visit sequence.
//
// CRITICAL PATTERNS:
//
// Logical Clock
// Ticks and visit seq numbers come from Clock.Next(), never wall time.
//
// Fail Before Work
// Missing routines or predicates are detected before any entry runs, so a
// tick either starts fully wired or not at all.
//
// Bounded Ticks
// The invocation quota (WithMaxInvocations) stops runaway ticks.
package engine
