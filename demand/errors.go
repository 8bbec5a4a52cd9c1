package demand

import (
	"errors"
	"fmt"
)

// ErrEmptySelection is returned when no forecast rows match a SKU.
// It is a user-facing empty state, not a failure.
var ErrEmptySelection = errors.New("no forecast data for selection")

// EmptySelectionError names the SKU that matched nothing.
type EmptySelectionError struct {
	SKU SKU
}

func (e *EmptySelectionError) Error() string {
	return fmt.Sprintf("no forecast data found for store %q / product %q",
		e.SKU.StoreKey, e.SKU.ProdKey)
}

func (e *EmptySelectionError) Unwrap() error {
	return ErrEmptySelection
}

// IsEmptySelection reports whether err is the empty-state warning.
func IsEmptySelection(err error) bool {
	return errors.Is(err, ErrEmptySelection)
}
