package errs

import "fmt"

// InvalidTransitionError reports a state-machine action that is not allowed
// from the current state, or by the current actor. Returning it guarantees
// that nothing was mutated.
type InvalidTransitionError struct {
	Action string
	From   string
	Cause  error
}

// NewInvalidTransitionError creates an InvalidTransitionError without a cause.
func NewInvalidTransitionError(action, from string) *InvalidTransitionError {
	return &InvalidTransitionError{
		Action: action,
		From:   from,
	}
}

// NewInvalidTransitionErrorWithCause creates an InvalidTransitionError wrapping cause.
func NewInvalidTransitionErrorWithCause(action, from string, cause error) *InvalidTransitionError {
	return &InvalidTransitionError{
		Action: action,
		From:   from,
		Cause:  cause,
	}
}

func (e *InvalidTransitionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: cannot %s from %s (cause: %v)", ErrInvalidTransition, e.Action, e.From, e.Cause)
	}
	return fmt.Sprintf("%s: cannot %s from %s", ErrInvalidTransition, e.Action, e.From)
}

func (e *InvalidTransitionError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrInvalidTransition}
	}
	return []error{ErrInvalidTransition, e.Cause}
}

// DependencyError reports that an external collaborator (index, store, broker)
// failed. Operations returning it have not changed any state.
type DependencyError struct {
	Name  string
	Cause error
}

// NewDependencyError creates a DependencyError for the named collaborator.
func NewDependencyError(name string, cause error) *DependencyError {
	return &DependencyError{
		Name:  name,
		Cause: cause,
	}
}

func (e *DependencyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", ErrDependencyIsDegraded, e.Name, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrDependencyIsDegraded, e.Name)
}

// Unwrap exposes both the sentinel and the underlying cause, so errors.Is
// matches ErrDependencyIsDegraded as well as e.g. context.DeadlineExceeded.
func (e *DependencyError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrDependencyIsDegraded}
	}
	return []error{ErrDependencyIsDegraded, e.Cause}
}
