package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const brokenSystems = `package game

system: Move: components: ["Position", "Velocity"]

system: Sum: {
	kind:       "reduce"
	components: ["Health"]
}

system: Nothing: components: []
`

func TestPlanText(t *testing.T) {
	out, err := execute(t, NewPlanCommand(&RootOptions{Format: "text"}), gameSystems)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Planned 4 system(s) into 3 entries (1 shared, 2 scan(s) saved)")
	assert.Contains(t, out, `Foreach(Move, Damp)
  TagFilter(has_not Frozen)
    Join
      Scan(Position)
      Scan(Velocity)
`)
	assert.Contains(t, out, "Foreach(Render)\n")
	assert.Contains(t, out, "Foreach(Highlight)\n  PredicateFilter(IsVisible)\n")
}

func TestPlanJSON(t *testing.T) {
	out, err := execute(t, NewPlanCommand(&RootOptions{Format: "json"}), gameSystems)
	require.NoError(t, err)

	var plan PlanOutput
	resp := decodeResponse(t, out, &plan)
	assert.Equal(t, "ok", resp.Status)

	assert.Equal(t, 4, plan.Stats.Descriptors)
	assert.Equal(t, 3, plan.Stats.Entries)
	require.Len(t, plan.Entries, 3)
	assert.Equal(t, "Move", string(plan.Entries[0].Routines[0]))
	assert.Equal(t, "Damp", string(plan.Entries[0].Routines[1]))
	assert.Len(t, plan.Entries[0].Key, 64)
	assert.NotEqual(t, plan.Entries[1].Key, plan.Entries[2].Key)
	assert.Empty(t, plan.Diagnostics)

	hashes := plan.Entries[0].DescriptorHashes
	require.Len(t, hashes, 2)
	assert.Len(t, hashes[0], 64)
	assert.NotEqual(t, hashes[0], hashes[1], "Move and Damp are distinct descriptors")
}

func TestPlanNoMerge(t *testing.T) {
	out, err := execute(t, NewPlanCommand(&RootOptions{Format: "json"}), "--no-merge", gameSystems)
	require.NoError(t, err)

	var plan PlanOutput
	decodeResponse(t, out, &plan)
	assert.Equal(t, 4, plan.Stats.Entries)
	assert.Equal(t, 0, plan.Stats.SharedEntries)
	assert.Equal(t, plan.Entries[0].Key, plan.Entries[1].Key)
}

func TestPlanWorkersMatchSequential(t *testing.T) {
	seq, err := execute(t, NewPlanCommand(&RootOptions{Format: "text"}), gameSystems)
	require.NoError(t, err)
	par, err := execute(t, NewPlanCommand(&RootOptions{Format: "text"}), "--workers", "4", gameSystems)
	require.NoError(t, err)
	assert.Equal(t, seq, par)
}

func TestPlanInvalidWorkers(t *testing.T) {
	_, err := execute(t, NewPlanCommand(&RootOptions{Format: "text"}), "--workers", "0", gameSystems)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestPlanWritesDOT(t *testing.T) {
	dotFile := filepath.Join(t.TempDir(), "plan.dot")
	out, err := execute(t, NewPlanCommand(&RootOptions{Format: "text"}), "--dot", dotFile, gameSystems)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote plan forest to "+dotFile)

	data, err := os.ReadFile(dotFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "digraph Plan {")
	assert.Contains(t, string(data), `label="Foreach(Move, Damp)"`)
}

func TestPlanDiagnosticsFail(t *testing.T) {
	dir := writeSystems(t, brokenSystems)

	out, err := execute(t, NewPlanCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "✗ ")
	assert.Contains(t, out, "UNSUPPORTED_OPERATION_KIND")
	assert.Contains(t, out, "(routine=Sum)")
	assert.Contains(t, out, "EMPTY_COMPONENT_LIST")
	assert.Contains(t, out, "(routine=Nothing)")
	// The plannable system is still printed.
	assert.Contains(t, out, "Foreach(Move)")
}

func TestPlanDiagnosticsJSON(t *testing.T) {
	dir := writeSystems(t, brokenSystems)

	out, err := execute(t, NewPlanCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)

	var plan PlanOutput
	resp := decodeResponse(t, out, &plan)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "UNSUPPORTED_OPERATION_KIND", resp.Error.Code)
	require.Len(t, plan.Diagnostics, 2)
	assert.Equal(t, "Sum", plan.Diagnostics[0].Routine)
	assert.Contains(t, plan.Diagnostics[0].Pos, "systems.cue:")
	assert.Equal(t, "Nothing", plan.Diagnostics[1].Routine)
	assert.Len(t, plan.Entries, 1)
}

func TestPlanMissingDir(t *testing.T) {
	out, err := execute(t, NewPlanCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "✗ Loading failed")
	assert.Contains(t, out, "E005")
}

func TestPlanCompileErrors(t *testing.T) {
	dir := writeSystems(t, `package game

system: Move: components: "Position"
system: Draw: colour: "red"
`)

	out, err := execute(t, NewPlanCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var errs []CLIError
	resp := decodeResponse(t, out, &errs)
	assert.Equal(t, "error", resp.Status)
	require.Len(t, errs, 2)
	assert.Equal(t, "E101", errs[0].Code)
	assert.Equal(t, "E102", errs[1].Code)
}
