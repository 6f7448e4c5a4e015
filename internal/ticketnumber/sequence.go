package ticketnumber

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// MaxCounter is the largest counter that fits the five-digit number format.
const MaxCounter = 99999

// Sequence numbers tickets from a per-year counter.
type Sequence struct {
	prefix string
	store  CounterStore
	clock  Clock
}

// NewSequence builds a sequence generator. A nil clock uses UTC wall time.
func NewSequence(prefix string, store CounterStore, clock Clock) *Sequence {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Sequence{prefix: prefix, store: store, clock: clock}
}

func (g *Sequence) Name() string { return "sequence" }

func (g *Sequence) Next(ctx context.Context, _ Lookup) (string, error) {
	year := g.clock().Year()
	counter, err := g.store.Add(ctx, year, 1)
	if err != nil {
		return "", fmt.Errorf("increment ticket counter: %w", err)
	}
	if counter > MaxCounter {
		return "", apperrors.NewConflict("ticket numbers for the year are exhausted",
			map[string]any{"year": year, "counter": counter})
	}
	return Format(g.prefix, year, counter), nil
}
