package core

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("transaction not found")
	ErrNoCriteria       = errors.New("no deletion criteria supplied")
	ErrInvalidGroupBy   = errors.New("invalid group_by")
	ErrInvalidChartType = errors.New("invalid chart_type")
	ErrAmountOverflow   = errors.New("amount total out of range")

	// ErrStorage marks failures of the underlying store. Callers show it
	// without the wrapped detail.
	ErrStorage = errors.New("storage error")
)

// ValidationError reports a malformed or missing input field. It is always
// raised before the store is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
