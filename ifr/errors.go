package ifr

import (
	"errors"
	"fmt"
)

var (
	// ErrLookup is matched by every *LookupError.
	ErrLookup = errors.New("lookup failed")

	// ErrOutOfOrder is returned when a scenario is evaluated for a date that is
	// not the day after its previous evaluation.
	ErrOutOfOrder = errors.New("evaluation out of chronological order")
)

// LookupError reports a missing entry in a read-only table or series.
type LookupError struct {
	Table string
	Key   string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: no entry for %s", e.Table, e.Key)
}

// Is makes errors.Is(err, ErrLookup) true for any LookupError.
func (e *LookupError) Is(target error) bool {
	return target == ErrLookup
}

func lookupErr(table string, key any) error {
	return &LookupError{Table: table, Key: fmt.Sprint(key)}
}
