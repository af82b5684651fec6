package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/sysplan/internal/ir"
)

func TestSystem_BuildsForEachDescriptor(t *testing.T) {
	d := System("Move").
		Components("Position", "Velocity").
		WithTags("Player").
		WithoutTags("Frozen").
		With("Mass").
		Without("Dead").
		Predicates("isAlive").
		Args("dt").
		At("systems.cue", 3, 5).
		Build()

	assert.Equal(t, ir.OpForEach, d.Kind)
	assert.Equal(t, ir.RoutineID("Move"), d.Routine)
	assert.Equal(t, []ir.ComponentID{"Position", "Velocity"}, d.Components)
	assert.Equal(t, []ir.TagID{"Player"}, d.WithTags)
	assert.Equal(t, []ir.TagID{"Frozen"}, d.WithoutTags)
	assert.Equal(t, []ir.ComponentID{"Mass"}, d.WithComponents)
	assert.Equal(t, []ir.ComponentID{"Dead"}, d.WithoutComponents)
	assert.Equal(t, []ir.PredicateID{"isAlive"}, d.Predicates)
	assert.Equal(t, []ir.CtorArg{"dt"}, d.CtorArgs)
	assert.Equal(t, "systems.cue:3:5", d.Pos.String())
}

func TestBuild_DoesNotShareSlices(t *testing.T) {
	b := System("Move").Components("Position")
	first := b.Build()
	b.Components("Velocity")
	second := b.Build()

	assert.Equal(t, []ir.ComponentID{"Position"}, first.Components)
	assert.Equal(t, []ir.ComponentID{"Position", "Velocity"}, second.Components)
}

func TestBuild_EmptyGroupsStayNil(t *testing.T) {
	d := System("Idle").Build()
	assert.Nil(t, d.Components)
	assert.Nil(t, d.Predicates)
}
