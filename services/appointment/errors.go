package appointment

import (
	"errors"
	"fmt"
)

// ErrAuthRequired is returned when an operation needs a bearer token for the
// external appointment system and none is stored for the user. Handlers
// resolve it locally by prompting a login, never as a raw 500.
var ErrAuthRequired = errors.New("appointment system login required")

// InvalidArgumentError is raised before any network call when a required
// booking field is missing.
type InvalidArgumentError struct {
	Field string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalidArgument: %s is required", e.Field)
}

// NewInvalidArgument returns an InvalidArgumentError for the given field.
func NewInvalidArgument(field string) error {
	return &InvalidArgumentError{Field: field}
}

// IsInvalidArgument reports whether err is an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	var invalidErr *InvalidArgumentError
	return errors.As(err, &invalidErr)
}

// GatewayError carries a non-2xx response from the appointment API together
// with the best-effort parsed error message.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("appointment API error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("appointment API error (%d)", e.StatusCode)
}

// IsGatewayError reports whether err is a GatewayError.
func IsGatewayError(err error) bool {
	var gwErr *GatewayError
	return errors.As(err, &gwErr)
}
