package dosing

import (
	"errors"
	"fmt"
)

// ErrDoseTooHigh is returned when no product and bottle combination can
// deliver a week's dose.
var ErrDoseTooHigh = errors.New("cbd dose too high for product catalog")

// ValidationError names the offending field and, where relevant, the
// medication it belongs to.
type ValidationError struct {
	Field      string
	Medication string
	Message    string
}

func (e *ValidationError) Error() string {
	if e.Medication != "" {
		return fmt.Sprintf("%s (%s): %s", e.Field, e.Medication, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
