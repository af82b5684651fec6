package harness

import (
	"github.com/roach88/sysplan/internal/engine"
	"github.com/roach88/sysplan/internal/planner"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expectation matches.
	Pass bool `json:"pass"`

	// Errors contains expectation failures and runtime errors.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Visits maps each routine to the names of the entities it was invoked
	// on, sorted by name.
	Visits map[string][]string `json:"visits"`

	// Diagnostics are the planner's descriptor error kinds in descriptor
	// order.
	Diagnostics []string `json:"diagnostics,omitempty"`

	Plan  planner.Stats `json:"plan"`
	Stats engine.Stats  `json:"stats"`

	// Rendering is the plan in optree.Format form, entry by entry.
	Rendering string `json:"-"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
		Visits: make(map[string][]string),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
