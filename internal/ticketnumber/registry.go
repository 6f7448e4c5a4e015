package ticketnumber

import (
	"fmt"

	"github.com/spec-kit/helpdesk/internal/config"
)

// Resolve maps the configured strategy to a concrete Generator. counter is only used by the
// sequence strategy.
func Resolve(cfg config.TicketNumberConfig, counter CounterStore, clock Clock) (Generator, error) {
	switch cfg.Strategy {
	case config.TicketNumberSequence, "":
		if counter == nil {
			return nil, fmt.Errorf("sequence ticket numbers need a counter store")
		}
		return NewSequence(cfg.Prefix, counter, clock), nil
	case config.TicketNumberRandom:
		return NewRandom(cfg.Prefix, cfg.MaxAttempts, cfg.RetryBackoff(), clock, 0), nil
	}
	return nil, fmt.Errorf("unknown ticket number strategy %q", cfg.Strategy)
}
