package observability

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/events"
)

// SubscribeTicketEvents logs and counts every ticket event published on dispatcher. Counters for
// all known types start at zero so dashboards see the series before the first event.
func SubscribeTicketEvents(dispatcher events.Dispatcher, logger *zap.Logger, metrics *Metrics) {
	for _, eventType := range events.AllTypes {
		metrics.initTicketEvent(string(eventType))
	}
	dispatcher.SubscribeAll(func(_ context.Context, event events.Event) error {
		metrics.RecordTicketEvent(string(event.Type))
		logger.Info("ticket event",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.String("actor_id", event.Actor.UserID),
			zap.String("actor_role", string(event.Actor.Role)),
		)
		return nil
	})
}
