package billing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInterval is returned when a recurrence interval is not
	// one of the known values.
	ErrInvalidInterval = errors.New("invalid recurrence interval")

	// ErrInvalidAmount is returned when a negative amount or tax rate
	// reaches a calculation that requires a non-negative value.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidReminderLevel is returned when a reminder is requested
	// for a level outside 1-3.
	ErrInvalidReminderLevel = errors.New("invalid reminder level")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidIntervalError reports which interval value was rejected.
type InvalidIntervalError struct {
	Interval RecurrenceInterval
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("invalid recurrence interval: %q", e.Interval)
}

func (e *InvalidIntervalError) Unwrap() error { return ErrInvalidInterval }

// InvalidAmountError reports which value was rejected and why.
type InvalidAmountError struct {
	Field string
	Value decimal.Decimal
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid %s: %s (must not be negative)", e.Field, e.Value)
}

func (e *InvalidAmountError) Unwrap() error { return ErrInvalidAmount }

// IsClientError returns true if the error is due to invalid input data
// rather than an internal failure. The API layer maps these to 400.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInterval) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidReminderLevel)
}
