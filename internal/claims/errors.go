package claims

import (
	"errors"
	"fmt"
)

var (
	ErrClaimNotFound = errors.New("claim not found")

	// ErrInvalidTransition matches every *InvalidTransitionError.
	ErrInvalidTransition = errors.New("invalid claim status transition")

	// ErrStatusConflict means the stored status changed between read and
	// conditional update.
	ErrStatusConflict = errors.New("claim status changed concurrently")

	ErrDeadlinePassed = errors.New("claim deadline has passed")
)

// InvalidTransitionError is returned when the lifecycle table has no edge
// From -> To. The claim is left unchanged.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move claim from %s to %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
