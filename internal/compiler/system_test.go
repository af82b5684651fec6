package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sysplan/internal/ir"
)

func compileSystem(t *testing.T, src, path string) (*ir.Descriptor, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename("game.cue"))
	require.NoError(t, v.Err())
	return CompileSystem(v.LookupPath(cue.ParsePath(path)))
}

func TestCompileSystemBasic(t *testing.T) {
	d, err := compileSystem(t, `
system: Move: {
	components:   ["Position", "Velocity"]
	with_tags:    ["Player"]
	without_tags: ["Frozen", "Sleeping"]
	with:         ["Mass"]
	without:      ["Dead"]
	predicates:   ["isAlive"]
	args:         ["dt", "world.gravity"]
}
`, "system.Move")
	require.NoError(t, err)

	assert.Equal(t, ir.OpForEach, d.Kind)
	assert.Equal(t, ir.RoutineID("Move"), d.Routine)
	assert.Equal(t, []ir.ComponentID{"Position", "Velocity"}, d.Components)
	assert.Equal(t, []ir.TagID{"Player"}, d.WithTags)
	assert.Equal(t, []ir.TagID{"Frozen", "Sleeping"}, d.WithoutTags)
	assert.Equal(t, []ir.ComponentID{"Mass"}, d.WithComponents)
	assert.Equal(t, []ir.ComponentID{"Dead"}, d.WithoutComponents)
	assert.Equal(t, []ir.PredicateID{"isAlive"}, d.Predicates)
	assert.Equal(t, []ir.CtorArg{"dt", "world.gravity"}, d.CtorArgs)

	assert.Equal(t, "game.cue", d.Pos.File)
	assert.True(t, d.Pos.IsValid())
}

func TestCompileSystemDefaults(t *testing.T) {
	d, err := compileSystem(t, `system: Tick: components: ["Timer"]`, "system.Tick")
	require.NoError(t, err)

	assert.Equal(t, ir.OpForEach, d.Kind)
	assert.Equal(t, ir.RoutineID("Tick"), d.Routine)
	assert.Nil(t, d.WithTags)
	assert.Nil(t, d.Predicates)
}

func TestCompileSystemExplicitRoutine(t *testing.T) {
	d, err := compileSystem(t, `
system: move_players: {
	routine:    "MovePlayers"
	components: ["Position"]
}
`, "system.move_players")
	require.NoError(t, err)
	assert.Equal(t, ir.RoutineID("MovePlayers"), d.Routine)
}

func TestCompileSystemPassesSemanticProblemsThrough(t *testing.T) {
	t.Run("unknown kind", func(t *testing.T) {
		d, err := compileSystem(t, `
system: Sum: {
	kind:       "reduce"
	components: ["Score"]
}
`, "system.Sum")
		require.NoError(t, err)
		assert.Equal(t, ir.OperationKind("reduce"), d.Kind)
		assert.False(t, d.Kind.Supported())
	})

	t.Run("empty components", func(t *testing.T) {
		d, err := compileSystem(t, `system: Idle: components: []`, "system.Idle")
		require.NoError(t, err)
		assert.Empty(t, d.Components)
	})

	t.Run("missing components", func(t *testing.T) {
		d, err := compileSystem(t, `system: Idle: with_tags: ["Player"]`, "system.Idle")
		require.NoError(t, err)
		assert.Empty(t, d.Components)
	})
}

func TestCompileSystemStructuralErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		path    string
		field   string
		message string
	}{
		{
			name:    "components not a list",
			src:     `system: Move: components: "Position"`,
			path:    "system.Move",
			field:   "components",
			message: "list of strings",
		},
		{
			name:    "non-string element",
			src:     `system: Move: components: ["Position", 3]`,
			path:    "system.Move",
			field:   "components[1]",
			message: "must be a string",
		},
		{
			name:    "kind not a string",
			src:     `system: Move: { kind: 1, components: ["A"] }`,
			path:    "system.Move",
			field:   "kind",
			message: "must be a string",
		},
		{
			name:    "unknown field",
			src:     `system: Move: { components: ["A"], without_tag: ["Frozen"] }`,
			path:    "system.Move",
			field:   "without_tag",
			message: "unknown field",
		},
		{
			name:    "not a struct",
			src:     `system: Move: "Position"`,
			path:    "system.Move",
			field:   "system",
			message: "must be a struct",
		},
		{
			name:    "empty routine",
			src:     `system: Move: { routine: "", components: ["A"] }`,
			path:    "system.Move",
			field:   "routine",
			message: "required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := compileSystem(t, tt.src, tt.path)
			require.Error(t, err)
			assert.Nil(t, d)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
			assert.Contains(t, ce.Message, tt.message)
		})
	}
}

func TestCompileErrorFormat(t *testing.T) {
	e := &CompileError{Field: "components", Message: "must be a list of strings"}
	assert.Equal(t, "components: must be a list of strings", e.Error())
}
