package engine

import "fmt"

// QuotaEnforcer counts routine invocations within one tick and enforces a
// maximum. A quota of 0 or less disables the limit.
//
// Routines may spawn entities that later entries match, so a tick's work
// is not bounded by the world size at tick start.
type QuotaEnforcer struct {
	max     int
	current int
}

// NewQuotaEnforcer creates a quota enforcer with the given limit.
func NewQuotaEnforcer(max int) *QuotaEnforcer {
	return &QuotaEnforcer{max: max}
}

// Check increments the counter and validates against the limit.
func (q *QuotaEnforcer) Check(tick int64) error {
	q.current++
	if q.max > 0 && q.current > q.max {
		return &QuotaExceededError{
			Tick:        tick,
			Invocations: q.current,
			Limit:       q.max,
		}
	}
	return nil
}

// Current returns the current invocation count.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// QuotaExceededError is returned when a tick exceeds its invocation quota.
// The tick stops at the invocation that crossed the limit.
type QuotaExceededError struct {
	Tick        int64
	Invocations int
	Limit       int
}

// Error implements the error interface.
func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("tick %d exceeded invocation quota: %d > %d",
		e.Tick, e.Invocations, e.Limit)
}
