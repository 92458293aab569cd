package service

import (
	"context"

	"github.com/alexanderramin/earnclock/internal/broadcast"
	"github.com/alexanderramin/earnclock/internal/db"
	"github.com/alexanderramin/earnclock/internal/metrics"
)

// publish sends events for a committed mutation. Failures are logged and
// counted, never returned: the mutation already happened.
func (s *settings) publish(ctx context.Context, events ...broadcast.Event) {
	if s.publisher == nil {
		return
	}
	for _, ev := range events {
		if err := s.publisher.Publish(ctx, ev); err != nil {
			metrics.PublishFailures.Inc()
			s.logger.Warn().Err(err).
				Str("kind", string(ev.Kind)).
				Str("user_id", ev.UserID).
				Msg("Failed to publish change event")
		}
	}
}

// publishOnCommit defers events until the enclosing transaction commits.
// A rollback discards them.
func (s *settings) publishOnCommit(ctx context.Context, events ...broadcast.Event) {
	db.AfterCommit(ctx, func(ctx context.Context) { s.publish(ctx, events...) })
}
