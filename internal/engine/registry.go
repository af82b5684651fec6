package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/sysplan/internal/ir"
	"github.com/roach88/sysplan/internal/planner"
	"github.com/roach88/sysplan/internal/store"
)

// Routine is invoked once per matching entity.
type Routine func(ctx context.Context, id store.EntityID) error

// Predicate decides per entity whether a row passes a PredicateFilter.
type Predicate func(ctx context.Context, id store.EntityID) (bool, error)

// Registry maps the opaque identifiers of a plan to their implementations.
// A Registry is not safe for concurrent registration.
type Registry struct {
	routines   map[ir.RoutineID]Routine
	predicates map[ir.PredicateID]Predicate
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		routines:   make(map[ir.RoutineID]Routine),
		predicates: make(map[ir.PredicateID]Predicate),
	}
}

// RegisterRoutine binds id to fn, replacing any previous binding.
func (r *Registry) RegisterRoutine(id ir.RoutineID, fn Routine) {
	r.routines[id] = fn
}

// RegisterPredicate binds id to fn, replacing any previous binding.
func (r *Registry) RegisterPredicate(id ir.PredicateID, fn Predicate) {
	r.predicates[id] = fn
}

// Routine looks up a routine.
func (r *Registry) Routine(id ir.RoutineID) (Routine, bool) {
	fn, ok := r.routines[id]
	return fn, ok
}

// Predicate looks up a predicate.
func (r *Registry) Predicate(id ir.PredicateID) (Predicate, bool) {
	fn, ok := r.predicates[id]
	return fn, ok
}

// Routines returns the registered routine ids, sorted.
func (r *Registry) Routines() []ir.RoutineID {
	ids := make([]ir.RoutineID, 0, len(r.routines))
	for id := range r.routines {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Check verifies every routine and predicate the plan references is
// registered. Returns the first missing one, in plan order.
func (r *Registry) Check(plan *planner.Plan) error {
	for _, e := range plan.Entries {
		for _, id := range e.Root.Routines {
			if _, ok := r.routines[id]; !ok {
				return &RuntimeError{
					Code:    ErrCodeMissingRoutine,
					Message: fmt.Sprintf("routine %q is not registered", id),
					Routine: id,
				}
			}
		}
		for _, o := range e.Origins {
			for _, id := range o.Descriptor.Predicates {
				if _, ok := r.predicates[id]; !ok {
					return &RuntimeError{
						Code:      ErrCodeMissingPredicate,
						Message:   fmt.Sprintf("predicate %q is not registered", id),
						Predicate: id,
					}
				}
			}
		}
	}
	return nil
}
