package planner

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sysplan/internal/ir"
	"github.com/roach88/sysplan/internal/optree"
	"github.com/roach88/sysplan/internal/testutil"
)

func TestBuild_SingleComponent(t *testing.T) {
	root, err := Build(testutil.System("Tick").Components("Timer").Build())
	require.NoError(t, err)

	want := &optree.Foreach{
		Child:    &optree.Scan{Table: "Timer"},
		Routines: []ir.RoutineID{"Tick"},
	}
	if diff := cmp.Diff(want, root); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_RightNestedJoin(t *testing.T) {
	tests := []struct {
		name       string
		components []string
		want       optree.Operator
	}{
		{
			name:       "two",
			components: []string{"A", "B"},
			want: &optree.Join{
				Left:  &optree.Scan{Table: "A"},
				Right: &optree.Scan{Table: "B"},
			},
		},
		{
			name:       "three",
			components: []string{"A", "B", "C"},
			want: &optree.Join{
				Left: &optree.Scan{Table: "A"},
				Right: &optree.Join{
					Left:  &optree.Scan{Table: "B"},
					Right: &optree.Scan{Table: "C"},
				},
			},
		},
		{
			name:       "four",
			components: []string{"A", "B", "C", "D"},
			want: &optree.Join{
				Left: &optree.Scan{Table: "A"},
				Right: &optree.Join{
					Left: &optree.Scan{Table: "B"},
					Right: &optree.Join{
						Left:  &optree.Scan{Table: "C"},
						Right: &optree.Scan{Table: "D"},
					},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := Build(testutil.System("R").Components(tt.components...).Build())
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, root.Child); diff != "" {
				t.Errorf("core mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuild_FixedFilterOrder(t *testing.T) {
	d := testutil.System("Move").
		Components("Position", "Velocity").
		WithTags("Player").
		WithoutTags("Frozen", "Sleeping").
		With("Mass").
		Without("Dead").
		Predicates("isAlive", "inRange").
		Build()

	root, err := Build(d)
	require.NoError(t, err)

	want := `Foreach(Move)
  PredicateFilter(isAlive)
    PredicateFilter(inRange)
      ComponentFilter(has Mass)
        ComponentFilter(has_not Dead)
          TagFilter(has Player)
            TagFilter(has_not Frozen)
              TagFilter(has_not Sleeping)
                Join
                  Scan(Position)
                  Scan(Velocity)
`
	assert.Equal(t, want, optree.Format(root))
	assert.True(t, optree.Validate(root).WellFormed)
}

func TestBuild_EmptyGroupsAddNoNodes(t *testing.T) {
	root, err := Build(testutil.System("Move").Components("Position").WithoutTags("Frozen").Build())
	require.NoError(t, err)

	assert.Equal(t, 3, optree.Size(root))
	tf, ok := root.Child.(*optree.TagFilter)
	require.True(t, ok)
	assert.Equal(t, optree.HasNot, tf.Mode)
	assert.IsType(t, &optree.Scan{}, tf.Child)
}

func TestBuild_CtorArgsDoNotShapeTree(t *testing.T) {
	plain, err := Build(testutil.System("Move").Components("Position").Build())
	require.NoError(t, err)
	withArgs, err := Build(testutil.System("Move").Components("Position").Args("dt", "gravity").Build())
	require.NoError(t, err)

	assert.True(t, optree.Equivalent(plain.Child, withArgs.Child))
}

func TestBuild_Deterministic(t *testing.T) {
	d := testutil.System("Move").
		Components("A", "B", "C").
		WithTags("T").
		Predicates("p").
		Build()

	first, err := Build(d)
	require.NoError(t, err)
	second, err := Build(d)
	require.NoError(t, err)

	assert.True(t, optree.Equivalent(first.Child, second.Child))
	assert.NotSame(t, first.Child, second.Child, "each build allocates its own nodes")
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated Build() mismatch (-first +second):\n%s", diff)
	}
}

func TestBuild_UnsupportedKind(t *testing.T) {
	d := testutil.System("Sum").
		Kind(ir.OperationKind("reduce")).
		Components("Score").
		At("systems.cue", 12, 3).
		Build()

	root, err := Build(d)
	require.Error(t, err)
	assert.Nil(t, root)

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrUnsupportedOperationKind, kind)
	assert.True(t, IsDescriptorError(err))
	assert.False(t, IsInternalError(err))

	var pe *Error
	require.ErrorAs(t, err, &pe)
	require.NotNil(t, pe.Descriptor)
	assert.Equal(t, ir.RoutineID("Sum"), pe.Descriptor.Routine)
	assert.Equal(t, 12, pe.Pos.Line)
	assert.Contains(t, err.Error(), "systems.cue:12:3")
}

func TestBuild_UnsupportedKindCheckedFirst(t *testing.T) {
	_, err := Build(testutil.System("X").Kind(ir.OpUnknown).Build())
	kind, _ := KindOf(err)
	assert.Equal(t, ErrUnsupportedOperationKind, kind)
}

func TestBuild_EmptyComponentList(t *testing.T) {
	d := testutil.System("Idle").WithTags("Player").Build()

	root, err := Build(d)
	require.Error(t, err)
	assert.Nil(t, root)

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrEmptyComponentList, kind)
	assert.True(t, IsDescriptorError(err))
}

func TestKindOf_NonPlannerError(t *testing.T) {
	_, ok := KindOf(assert.AnError)
	assert.False(t, ok)
	assert.False(t, IsDescriptorError(nil))
	assert.False(t, IsInternalError(assert.AnError))
}
