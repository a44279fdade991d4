package model

import "fmt"

// The error taxonomy for the workflow core. Every failed operation returns
// one of these without mutating state; none are retryable.

// ValidationError reports a rejected input value (empty required field,
// non-positive SLA, unknown action).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// InvalidReferenceError reports a dangling reference to an entity that does
// not exist (block, workflow, task, user).
type InvalidReferenceError struct {
	Kind string
	ID   string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// CycleError reports a connection that would create a dependency cycle.
type CycleError struct {
	Source string
	Target string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("connecting %s -> %s would create a dependency cycle", e.Source, e.Target)
}

// ActionNotAllowedError reports an action outside the block's allowed set or
// an actor without the assignment or role the block requires.
type ActionNotAllowedError struct {
	Action StepAction
	Reason string
}

func (e *ActionNotAllowedError) Error() string {
	return fmt.Sprintf("action %s not allowed: %s", e.Action, e.Reason)
}

// InvalidStateError reports a state-changing action attempted on a step that
// is already terminal, or a transition the lifecycle does not permit.
type InvalidStateError struct {
	Status StepStatus
	Action StepAction
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot apply %s to step in status %s", e.Action, e.Status)
}
