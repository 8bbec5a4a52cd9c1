package policy

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidServiceLevel is returned for a service level outside the
	// enumerated set. The calculator never substitutes a default.
	ErrInvalidServiceLevel = errors.New("invalid service level")

	// ErrInvalidLeadTime is returned by Parameters.Validate for a lead time
	// outside [MinLeadTimeDays, MaxLeadTimeDays].
	ErrInvalidLeadTime = errors.New("invalid lead time")

	// ErrInvalidCost is returned by Parameters.Validate for a negative or
	// non-finite cost.
	ErrInvalidCost = errors.New("invalid cost")
)

// InvalidServiceLevelError carries the rejected value.
type InvalidServiceLevelError struct {
	Value float64
}

func (e *InvalidServiceLevelError) Error() string {
	return fmt.Sprintf("invalid service level %v: must be one of 0.90, 0.95, 0.97, 0.99", e.Value)
}

func (e *InvalidServiceLevelError) Unwrap() error {
	return ErrInvalidServiceLevel
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidServiceLevel) ||
		errors.Is(err, ErrInvalidLeadTime) ||
		errors.Is(err, ErrInvalidCost)
}
