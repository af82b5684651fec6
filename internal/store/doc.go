// Package store provides the SQLite-backed entity world the reference
// runtime queries.
//
// The world is three relations keyed by entity id:
//   - entities: one row per live entity, with an optional fixture name
//   - components: (entity_id, component) presence plus canonical JSON data
//   - tags: (entity_id, tag) markers
//
// and an append-only visits log recording every routine invocation.
//
// # Critical Patterns
//
// Deterministic Query Results
//   - Entity queries MUST include: ORDER BY entity_id COLLATE BINARY ASC
//   - Visits are ordered by (tick, seq), never by wall time
//
// Canonical Component Data
//   - Component data is stored as RFC 8785 canonical JSON (ir.MarshalCanonical)
//   - Floats are rejected at write time
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Despawn cascades to components and tags
package store
