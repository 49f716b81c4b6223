// Package balance reduces an address history into balance counters.
package balance

import (
	"errors"
	"fmt"

	"github.com/dmagro/addr-balance/internal/history"
)

// ErrNegativeValue is returned when the service reports an entry with a
// negative value. It is a contract violation and callers must not recover
// from it.
var ErrNegativeValue = errors.New("history entry has negative value")

// Result holds the balance counters for one address, in satoshis.
type Result struct {
	Paid     uint64 // confirmed received and not confirmed-spent
	Pending  uint64 // not yet spent, confirmed or not
	Received uint64 // everything ever received
}

// Accumulate folds entries into a Result. Each entry is tested against the
// pending and paid predicates independently, so one entry may count toward
// both.
func Accumulate(entries []history.Entry) (Result, error) {
	var r Result
	for i, e := range entries {
		if e.Value < 0 {
			return Result{}, fmt.Errorf("%w: entry %d (%s) value %d", ErrNegativeValue, i, e.Output, e.Value)
		}
		value := uint64(e.Value)
		r.Received += value

		if e.Unspent() {
			r.Pending += value
		}

		if e.OutputHeight != 0 && (e.Unspent() || e.SpendHeight == 0) {
			r.Paid += value
		}
	}
	return r, nil
}
