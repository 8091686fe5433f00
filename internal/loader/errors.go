package loader

import (
	"errors"
	"fmt"
)

var errEmptyName = errors.New("person name is empty")

// invalidDateError marks a day/month combination that does not exist in the
// record year, e.g. February 30.
type invalidDateError struct {
	day   int
	month string
}

func (e *invalidDateError) Error() string {
	return fmt.Sprintf("day %d does not exist in month %q", e.day, e.month)
}
