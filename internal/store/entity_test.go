package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sysplan/internal/ir"
)

func TestEntityIDFor_Stable(t *testing.T) {
	assert.Equal(t, EntityIDFor("hero"), EntityIDFor("hero"))
	assert.NotEqual(t, EntityIDFor("hero"), EntityIDFor("villain"))
	assert.Equal(t, uuid.Version(5), EntityIDFor("hero").Version())
}

func TestSpawn_RandomIDs(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a, err := s.Spawn(ctx, "a")
	require.NoError(t, err)
	b, err := s.Spawn(ctx, "b")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	name, err := s.Name(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "a", name)
}

func TestSpawnWithID_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	id := EntityIDFor("hero")

	require.NoError(t, s.SpawnWithID(ctx, id, "hero"))
	require.NoError(t, s.SpawnWithID(ctx, id, "ignored"))

	ids, err := s.AllEntities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []EntityID{id}, ids)

	name, err := s.Name(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "hero", name)
}

func TestName_Unknown(t *testing.T) {
	s := createTestStore(t)
	_, err := s.Name(context.Background(), EntityIDFor("ghost"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestComponentData_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	id := EntityIDFor("hero")
	require.NoError(t, s.SpawnWithID(ctx, id, "hero"))

	data := map[string]any{
		"x":     int64(1) << 60,
		"label": "héro",
		"tags":  []any{"a", true},
	}
	require.NoError(t, s.AddComponent(ctx, id, "Position", data))

	got, ok, err := s.Component(ctx, id, "Position")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, data, got)

	// replace
	require.NoError(t, s.AddComponent(ctx, id, "Position", map[string]any{"x": 2}))
	got, _, err = s.Component(ctx, id, "Position")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": int64(2)}, got)
}

func TestComponent_Absent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	id := EntityIDFor("hero")
	require.NoError(t, s.SpawnWithID(ctx, id, "hero"))

	got, ok, err := s.Component(ctx, id, "Velocity")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestAddComponent_RejectsFloats(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	id := EntityIDFor("hero")
	require.NoError(t, s.SpawnWithID(ctx, id, "hero"))

	err := s.AddComponent(ctx, id, "Position", map[string]any{"x": 1.5})
	require.Error(t, err)
}

func TestAddComponent_UnknownEntity(t *testing.T) {
	s := createTestStore(t)
	err := s.AddComponent(context.Background(), EntityIDFor("ghost"), "Position", nil)
	require.Error(t, err, "foreign key should reject unknown entity")
}

func TestTags(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	id := EntityIDFor("hero")
	require.NoError(t, s.SpawnWithID(ctx, id, "hero"))

	require.NoError(t, s.AddTag(ctx, id, "Player"))
	require.NoError(t, s.AddTag(ctx, id, "Player"))

	has, err := s.HasTag(ctx, id, "Player")
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, s.RemoveTag(ctx, id, "Player"))
	has, err = s.HasTag(ctx, id, "Player")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestDespawn_Cascades(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	id := EntityIDFor("hero")
	require.NoError(t, s.SpawnWithID(ctx, id, "hero"))
	require.NoError(t, s.AddComponent(ctx, id, "Position", nil))
	require.NoError(t, s.AddTag(ctx, id, "Player"))

	require.NoError(t, s.Despawn(ctx, id))

	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM components").Scan(&n))
	assert.Zero(t, n)
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM tags").Scan(&n))
	assert.Zero(t, n)
}

func TestEntities_OrderedQuery(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	names := []string{"c", "a", "b"}
	for _, n := range names {
		id := EntityIDFor(n)
		require.NoError(t, s.SpawnWithID(ctx, id, n))
		require.NoError(t, s.AddComponent(ctx, id, "Position", nil))
	}

	ids, err := s.Entities(ctx, `
		SELECT entity_id FROM components WHERE component = ?
		ORDER BY entity_id COLLATE BINARY ASC
	`, "Position")
	require.NoError(t, err)
	require.Len(t, ids, 3)
	for i := 1; i < len(ids); i++ {
		assert.Less(t, ids[i-1].String(), ids[i].String())
	}

	none, err := s.Entities(ctx, `SELECT entity_id FROM components WHERE component = ?`, "Missing")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestVisits(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	hero, villain := EntityIDFor("hero"), EntityIDFor("villain")

	visits := []Visit{
		{Tick: 1, Seq: 1, Routine: "Move", EntityID: hero},
		{Tick: 1, Seq: 2, Routine: "Damp", EntityID: hero},
		{Tick: 2, Seq: 1, Routine: "Move", EntityID: villain},
	}
	for _, v := range visits {
		require.NoError(t, s.WriteVisit(ctx, v))
	}
	// duplicate (tick, seq) ignored
	require.NoError(t, s.WriteVisit(ctx, Visit{Tick: 1, Seq: 1, Routine: "Other", EntityID: villain}))

	tick1, err := s.ReadVisits(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, visits[:2], tick1)

	moves, err := s.ReadRoutineVisits(ctx, ir.RoutineID("Move"))
	require.NoError(t, err)
	assert.Equal(t, []Visit{visits[0], visits[2]}, moves)

	last, err := s.LastTick(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), last)

	empty, err := s.ReadVisits(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
