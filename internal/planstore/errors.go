package planstore

// ValidationError is a user-correctable problem with a plan being
// saved. It carries the failing rule in human-readable form and causes
// no state change.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// InvariantError rejects an operation that would violate a structural
// invariant of the plan collection, such as deleting the last plan.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string { return e.Reason }
