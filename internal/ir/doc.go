// Package ir provides the query descriptor types consumed by the planner.
//
// A Descriptor is the declarative, pre-parsed description of one routine's
// query: which component tables it iterates, which tags and components must
// or must not be present, and which predicates further restrict rows. The
// planner turns each descriptor into an operator tree (see package optree).
//
// This package contains type definitions and content hashing only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Identifiers are opaque. The planner compares them for equality and
//     never interprets them.
//   - Declaration order is significant in every list (it fixes join shape
//     and filter order), so hashes are order-sensitive.
//   - Constructor arguments are carried through untouched for code generation.
//   - All JSON tags use snake_case.
package ir
