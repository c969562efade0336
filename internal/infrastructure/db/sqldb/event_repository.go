package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/atica/user-roster/internal/core/domain"
	"github.com/atica/user-roster/internal/core/ports"
)

// EventRepository appends audit events to the user_events table. Replays of
// an already stored event ID are ignored.
type EventRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewEventRepository(db *sql.DB) ports.AuditRepository {
	return &EventRepository{db: db, now: time.Now}
}

func (r *EventRepository) InsertEvent(ctx context.Context, e *domain.UserEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_events (id, type, user_id, document, email, role, occurred_at, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO NOTHING`,
		e.ID, string(e.Type), e.UserID, e.Document, e.Email, e.Role, e.OccurredAt.UTC(), r.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert user event: %w", err)
	}
	return nil
}
