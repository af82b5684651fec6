package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/sysplan/internal/compiler"
	"github.com/roach88/sysplan/internal/engine"
	"github.com/roach88/sysplan/internal/ir"
	"github.com/roach88/sysplan/internal/optree"
	"github.com/roach88/sysplan/internal/planner"
	"github.com/roach88/sysplan/internal/store"
)

// Harness is the state of one scenario execution.
type Harness struct {
	store    *store.Store
	registry *engine.Registry
	logger   *slog.Logger

	// names maps fixture entity ids back to their names.
	names map[store.EntityID]string
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Fixture entities get ids derived from their names, so visit order is
// reproducible across runs.
//
// Execution flow:
// 1. Load the scenario's CUE specs into descriptors
// 2. Plan them, collecting descriptor diagnostics
// 3. Seed a fresh in-memory world with the fixture entities
// 4. Run the plan for one tick with the visit log enabled
// 5. Compare plan, tick stats and visits against the expectations
//
// An error is returned only when the scenario could not be executed at
// all; expectation mismatches and runtime errors land in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	loaded, errs := compiler.LoadFiles(scenario.Specs, compiler.LoadModeCollectAll)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load specs: %w", errors.Join(errs...))
	}

	result := NewResult()
	p := planner.New(planner.WithReporter(func(d planner.Diagnostic) {
		result.Diagnostics = append(result.Diagnostics, string(d.Kind))
	}))
	plan, err := p.Plan(loaded.Descriptors)
	if err != nil {
		return nil, fmt.Errorf("failed to plan: %w", err)
	}
	result.Plan = plan.Stats()
	result.Rendering = render(plan)

	st, err := store.OpenMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:    st,
		registry: engine.NewRegistry(),
		logger:   slog.New(slog.DiscardHandler),
		names:    make(map[store.EntityID]string, len(scenario.Entities)),
	}

	ctx := context.Background()
	if err := h.seed(ctx, scenario.Entities); err != nil {
		return nil, fmt.Errorf("failed to seed world: %w", err)
	}
	h.register(plan, scenario.Predicates)

	eng := engine.New(st, h.registry, engine.WithVisitLog())
	stats, runErr := eng.Run(ctx, plan)
	result.Stats = stats
	if runErr != nil {
		result.AddError(fmt.Sprintf("tick failed: %v", runErr))
	}

	if err := h.collectVisits(ctx, stats.Tick, result); err != nil {
		return nil, fmt.Errorf("failed to read visits: %w", err)
	}

	for _, msg := range CheckExpectations(result, scenario.Expect) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario finished", "name", scenario.Name, "pass", result.Pass)
	return result, nil
}

// seed spawns the fixture world.
func (h *Harness) seed(ctx context.Context, entities []EntityFixture) error {
	for _, e := range entities {
		id := store.EntityIDFor(e.Name)
		if err := h.store.SpawnWithID(ctx, id, e.Name); err != nil {
			return err
		}
		h.names[id] = e.Name

		for _, c := range e.Components {
			if err := h.store.AddComponent(ctx, id, ir.ComponentID(c), e.Data[c]); err != nil {
				return err
			}
		}
		for c, data := range e.Data {
			if slices.Contains(e.Components, c) {
				continue
			}
			if err := h.store.AddComponent(ctx, id, ir.ComponentID(c), data); err != nil {
				return err
			}
		}
		for _, tag := range e.Tags {
			if err := h.store.AddTag(ctx, id, ir.TagID(tag)); err != nil {
				return err
			}
		}
	}
	return nil
}

// register installs a no-op routine for every routine in the plan and a
// table-driven predicate for every predicate the scenario declares.
// Predicates the plan needs but the scenario omits stay unregistered, so
// the tick fails with MISSING_PREDICATE.
func (h *Harness) register(plan *planner.Plan, predicates map[string][]string) {
	for _, e := range plan.Entries {
		for _, rid := range e.Root.Routines {
			h.registry.RegisterRoutine(rid, func(context.Context, store.EntityID) error {
				return nil
			})
		}
	}

	for pred, accepted := range predicates {
		pass := make(map[store.EntityID]bool, len(accepted))
		for _, name := range accepted {
			pass[store.EntityIDFor(name)] = true
		}
		h.registry.RegisterPredicate(ir.PredicateID(pred), func(_ context.Context, id store.EntityID) (bool, error) {
			return pass[id], nil
		})
	}
}

// collectVisits reads the tick's visit log into result.Visits.
func (h *Harness) collectVisits(ctx context.Context, tick int64, result *Result) error {
	visits, err := h.store.ReadVisits(ctx, tick)
	if err != nil {
		return err
	}
	for _, v := range visits {
		name, ok := h.names[v.EntityID]
		if !ok {
			name = v.EntityID.String()
		}
		routine := string(v.Routine)
		result.Visits[routine] = append(result.Visits[routine], name)
	}
	for routine := range result.Visits {
		slices.Sort(result.Visits[routine])
	}
	return nil
}

// render formats every entry of plan, separated by blank lines.
func render(plan *planner.Plan) string {
	parts := make([]string, len(plan.Entries))
	for i, e := range plan.Entries {
		parts[i] = optree.Format(e.Root)
	}
	return strings.Join(parts, "\n")
}
