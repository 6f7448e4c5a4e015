// Package ticketnumber issues human-readable ticket numbers of the form <prefix>-<year>-<counter>.
package ticketnumber

import (
	"context"
	"fmt"
	"time"
)

// Generator issues the next ticket number.
type Generator interface {
	Name() string
	// Next returns a number not yet used by existing. Sequence generators ignore existing.
	Next(ctx context.Context, existing Lookup) (string, error)
}

// Lookup reports whether a ticket number is already taken.
type Lookup interface {
	ExistsByNumber(ctx context.Context, number string) (bool, error)
}

// CounterStore is an atomic per-year counter.
type CounterStore interface {
	// Add increments the counter for year by offset (>=1) and returns the new value.
	Add(ctx context.Context, year int, offset int64) (int64, error)
}

// Clock allows deterministic testing.
type Clock func() time.Time

// Format renders a ticket number.
func Format(prefix string, year int, counter int64) string {
	return fmt.Sprintf("%s-%d-%05d", prefix, year, counter)
}
