package booking

import (
	"errors"
	"fmt"
)

// ErrBookingInProgress rejects plain chat while a booking flow is active.
var ErrBookingInProgress = errors.New("finish or cancel the current booking first")

// FlowStepError is returned when an intent arrives in a step that does not
// accept it; the flow state is left untouched.
type FlowStepError struct {
	Expected string
	Actual   string
}

func (e *FlowStepError) Error() string {
	return fmt.Sprintf("booking flow is in step %q, expected %q", e.Actual, e.Expected)
}

// IsFlowStepError reports whether err is a FlowStepError.
func IsFlowStepError(err error) bool {
	var stepErr *FlowStepError
	return errors.As(err, &stepErr)
}
