package domain

// Outcome names the result of a mutation operation explicitly, so callers
// and tests can distinguish an applied change from the silent no-ops the
// mutation API guarantees (unknown id/week, zero-delta adjustment).
type Outcome string

const (
	// OutcomeApplied means the mutation changed the store.
	OutcomeApplied Outcome = "applied"
	// OutcomeNoMatch means the target (transaction id, week label) does
	// not exist; the store is returned unchanged.
	OutcomeNoMatch Outcome = "no_match"
	// OutcomeNoChange means the operation was a well-formed no-op
	// (already acknowledged week, zero balance adjustment).
	OutcomeNoChange Outcome = "no_change"
)
