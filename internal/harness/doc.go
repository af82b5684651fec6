// Package harness runs conformance scenarios against the planner and the
// reference runtime.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: movement
//	description: "Move and Damp share one data source"
//	specs:
//	  - specs/movement.cue
//	entities:
//	  - name: hero
//	    components: [Position, Velocity]
//	    data:
//	      Position: { x: 1, y: 2 }
//	  - name: statue
//	    components: [Position, Velocity]
//	    tags: [Frozen]
//	predicates:
//	  IsVisible: [hero]
//	expect:
//	  entries: 2
//	  scans: 2
//	  visits:
//	    Move: [hero]
//	    Damp: [hero]
//	  diagnostics: [EMPTY_COMPONENT_LIST]
//
// Spec paths are relative to the scenario file. Every entity name used
// under predicates or expect.visits must be declared under entities.
//
// # Determinism
//
// Fixture entity ids are derived from entity names (store.EntityIDFor),
// each scenario gets its own in-memory SQLite world, and the runtime orders
// matches by entity id, so a scenario produces the same snapshot on every
// run. Snapshots are compared with goldie (see RunWithGolden).
package harness
