package harness

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders the deterministic parts of a result: the plan forest,
// the tick's scan and invocation counts, and the visits per routine.
//
//	scenario: movement
//	entries: 2 scans: 2 invocations: 3
//
//	Foreach(Move, Damp)
//	  ...
//
//	visits:
//	  Damp: hero
//	  Move: hero
func Snapshot(name string, result *Result) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", name)
	fmt.Fprintf(&b, "entries: %d scans: %d invocations: %d\n",
		result.Plan.Entries, result.Stats.Scans, result.Stats.Invocations)

	if len(result.Diagnostics) > 0 {
		fmt.Fprintf(&b, "diagnostics: %s\n", strings.Join(result.Diagnostics, ", "))
	}

	if result.Rendering != "" {
		b.WriteByte('\n')
		b.WriteString(result.Rendering)
	}

	b.WriteString("\nvisits:\n")
	routines := make([]string, 0, len(result.Visits))
	for r := range result.Visits {
		routines = append(routines, r)
	}
	slices.Sort(routines)
	for _, r := range routines {
		fmt.Fprintf(&b, "  %s: %s\n", r, strings.Join(result.Visits[r], ", "))
	}
	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file. The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an already computed result against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, Snapshot(scenarioName, result))
}
