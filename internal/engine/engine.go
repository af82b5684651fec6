package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/sysplan/internal/ir"
	"github.com/roach88/sysplan/internal/optree"
	"github.com/roach88/sysplan/internal/planner"
	"github.com/roach88/sysplan/internal/querysql"
	"github.com/roach88/sysplan/internal/store"
)

// Engine runs plans against a store.
type Engine struct {
	store    *store.Store
	registry *Registry
	compiler *querysql.SQLCompiler
	clock    *Clock

	maxInvocations int
	recordVisits   bool
}

// Stats summarizes one tick.
type Stats struct {
	Tick int64 `json:"tick"`

	// Scans counts data-source evaluations: one per plan entry.
	Scans int `json:"scans"`

	// Rows counts entities that passed every filter, summed over entries.
	Rows int `json:"rows"`

	Invocations int `json:"invocations"`
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithMaxInvocations caps routine invocations per tick.
// Default: 0 (unlimited).
func WithMaxInvocations(n int) EngineOption {
	return func(e *Engine) {
		e.maxInvocations = n
	}
}

// WithClock sets the tick clock, e.g. one resumed with NewClockAt.
func WithClock(c *Clock) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithVisitLog records every invocation in the store's visits log.
func WithVisitLog() EngineOption {
	return func(e *Engine) {
		e.recordVisits = true
	}
}

// New creates an Engine over the given store and registry.
func New(s *store.Store, registry *Registry, opts ...EngineOption) *Engine {
	e := &Engine{
		store:    s,
		registry: registry,
		compiler: querysql.NewSQLCompiler(),
		clock:    NewClock(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Clock returns the engine's tick clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// Run executes one tick of plan.
//
// Every entry's data source is evaluated exactly once; each matching
// entity is then passed to every routine of the entry in order. Run stops
// at the first error and returns the stats accumulated so far.
func (e *Engine) Run(ctx context.Context, plan *planner.Plan) (Stats, error) {
	stats := Stats{Tick: e.clock.Next()}

	if err := e.registry.Check(plan); err != nil {
		setTick(err, stats.Tick)
		slog.Error("tick aborted: plan not fully registered", "tick", stats.Tick, "error", err)
		return stats, err
	}

	slog.Info("tick starting", "tick", stats.Tick, "entries", len(plan.Entries))

	quota := NewQuotaEnforcer(e.maxInvocations)
	var seq int64

	for _, entry := range plan.Entries {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("context cancelled: %w", err)
		}

		ids, err := e.evaluate(ctx, stats.Tick, entry.Root)
		if err != nil {
			return stats, err
		}
		stats.Scans++
		stats.Rows += len(ids)

		slog.Debug("entry evaluated",
			"tick", stats.Tick,
			"routines", entry.Root.Routines,
			"rows", len(ids),
		)

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return stats, fmt.Errorf("context cancelled: %w", err)
			}
			for _, rid := range entry.Root.Routines {
				if err := quota.Check(stats.Tick); err != nil {
					slog.Error("invocation quota exceeded",
						"tick", stats.Tick,
						"limit", e.maxInvocations,
					)
					return stats, &RuntimeError{
						Code:    ErrCodeQuotaExceeded,
						Message: "tick exceeded invocation quota",
						Tick:    stats.Tick,
						Routine: rid,
						Entity:  id,
						Err:     err,
					}
				}

				seq++
				if err := e.invoke(ctx, stats.Tick, seq, rid, id); err != nil {
					return stats, err
				}
				stats.Invocations++
			}
		}
	}

	slog.Info("tick complete",
		"tick", stats.Tick,
		"scans", stats.Scans,
		"rows", stats.Rows,
		"invocations", stats.Invocations,
	)
	return stats, nil
}

// evaluate runs the data source of one entry and applies its predicates.
func (e *Engine) evaluate(ctx context.Context, tick int64, root *optree.Foreach) ([]store.EntityID, error) {
	q, err := e.compiler.CompileEntry(root)
	if err != nil {
		return nil, &RuntimeError{
			Code:    ErrCodeQueryFailed,
			Message: "compile data source",
			Tick:    tick,
			Err:     err,
		}
	}

	ids, err := e.store.Entities(ctx, q.SQL, q.Params...)
	if err != nil {
		return nil, &RuntimeError{
			Code:    ErrCodeQueryFailed,
			Message: "evaluate data source",
			Tick:    tick,
			Err:     err,
		}
	}

	if len(q.Predicates) == 0 {
		return ids, nil
	}

	preds := make([]Predicate, len(q.Predicates))
	for i, pid := range q.Predicates {
		fn, ok := e.registry.Predicate(pid)
		if !ok {
			return nil, &RuntimeError{
				Code:      ErrCodeMissingPredicate,
				Message:   fmt.Sprintf("predicate %q is not registered", pid),
				Tick:      tick,
				Predicate: pid,
			}
		}
		preds[i] = fn
	}

	matched := ids[:0]
	for _, id := range ids {
		ok, err := e.passes(ctx, tick, q.Predicates, preds, id)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, id)
		}
	}
	return matched, nil
}

// passes applies predicates in order, stopping at the first false.
func (e *Engine) passes(ctx context.Context, tick int64, ids []ir.PredicateID, preds []Predicate, id store.EntityID) (bool, error) {
	for i, fn := range preds {
		ok, err := fn(ctx, id)
		if err != nil {
			return false, &RuntimeError{
				Code:      ErrCodePredicateFailed,
				Message:   "predicate returned an error",
				Tick:      tick,
				Predicate: ids[i],
				Entity:    id,
				Err:       err,
			}
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (e *Engine) invoke(ctx context.Context, tick, seq int64, rid ir.RoutineID, id store.EntityID) error {
	fn, _ := e.registry.Routine(rid)
	if err := fn(ctx, id); err != nil {
		slog.Error("routine failed",
			"tick", tick,
			"routine", rid,
			"entity", id,
			"error", err,
		)
		return &RuntimeError{
			Code:    ErrCodeRoutineFailed,
			Message: "routine returned an error",
			Tick:    tick,
			Routine: rid,
			Entity:  id,
			Err:     err,
		}
	}

	if e.recordVisits {
		visit := store.Visit{Tick: tick, Seq: seq, Routine: rid, EntityID: id}
		if err := e.store.WriteVisit(ctx, visit); err != nil {
			return fmt.Errorf("record visit: %w", err)
		}
	}
	return nil
}

func setTick(err error, tick int64) {
	if re, ok := err.(*RuntimeError); ok {
		re.Tick = tick
	}
}
