package session

import "fmt"

// NoActivePlanError means the active plan has no exercises for the
// requested slot. The caller should send the user to plan management;
// there is no fallback to bundled defaults.
type NoActivePlanError struct {
	Slot int
}

func (e *NoActivePlanError) Error() string {
	return fmt.Sprintf("no active plan with exercises for slot %d", e.Slot)
}

// EmptySessionError rejects saving a session in which no set has a
// positive weight.
type EmptySessionError struct{}

func (e *EmptySessionError) Error() string {
	return "session has no recorded weights"
}
