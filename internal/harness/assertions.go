package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an expectation fails.
type AssertionError struct {
	Type     string // Expectation that failed: entries, scans, visits, diagnostics
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// CheckExpectations compares result against expect and returns one message
// per failed expectation. Unset expectations are skipped.
func CheckExpectations(result *Result, expect Expectation) []string {
	var errs []error

	if expect.Entries != nil && *expect.Entries != result.Plan.Entries {
		errs = append(errs, &AssertionError{
			Type:     "entries",
			Expected: fmt.Sprintf("%d plan entries", *expect.Entries),
			Actual:   fmt.Sprintf("%d plan entries", result.Plan.Entries),
		})
	}

	if expect.Scans != nil && *expect.Scans != result.Stats.Scans {
		errs = append(errs, &AssertionError{
			Type:     "scans",
			Expected: fmt.Sprintf("%d scans", *expect.Scans),
			Actual:   fmt.Sprintf("%d scans", result.Stats.Scans),
		})
	}

	if expect.Visits != nil {
		errs = append(errs, checkVisits(result.Visits, expect.Visits)...)
	}

	if expect.Diagnostics != nil && !slices.Equal(expect.Diagnostics, result.Diagnostics) {
		errs = append(errs, &AssertionError{
			Type:     "diagnostics",
			Expected: fmt.Sprintf("%v", expect.Diagnostics),
			Actual:   fmt.Sprintf("%v", result.Diagnostics),
		})
	}

	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return msgs
}

// checkVisits compares visits per routine as sets of entity names.
// Routines are checked in sorted order so failures are reported stably.
func checkVisits(actual, expected map[string][]string) []error {
	routines := make([]string, 0, len(actual)+len(expected))
	for r := range actual {
		routines = append(routines, r)
	}
	for r := range expected {
		routines = append(routines, r)
	}
	slices.Sort(routines)
	routines = slices.Compact(routines)

	var errs []error
	for _, r := range routines {
		want := slices.Clone(expected[r])
		slices.Sort(want)
		got := actual[r]
		if slices.Equal(want, got) {
			continue
		}
		errs = append(errs, &AssertionError{
			Type:     "visits",
			Expected: fmt.Sprintf("%s visits %s", r, describeNames(want)),
			Actual:   fmt.Sprintf("%s visits %s", r, describeNames(got)),
		})
	}
	return errs
}

func describeNames(names []string) string {
	if len(names) == 0 {
		return "nothing"
	}
	return "[" + strings.Join(names, ", ") + "]"
}
