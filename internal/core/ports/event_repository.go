package ports

import (
	"context"

	"github.com/atica/user-roster/internal/core/domain"
)

// AuditRepository stores user events in the audit trail.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.UserEvent) error
}

// EventPublisher hands user events to the audit pipeline. Implementations must
// not block the caller for long and must never fail the write that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.UserEvent)
}
