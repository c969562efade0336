package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/atica/user-roster/internal/core/domain"
	"github.com/atica/user-roster/internal/core/ports"
)

const collectionUserEvents = "user_events"

// EventRepository implements ports.AuditRepository using MongoDB.
type EventRepository struct {
	col *mongo.Collection
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *mongo.Database) ports.AuditRepository {
	return &EventRepository{col: db.Collection(collectionUserEvents)}
}

// InsertEvent persists a user event to the user_events audit collection.
func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.UserEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"_id":         event.ID,
		"type":        string(event.Type),
		"user_id":     event.UserID,
		"document":    event.Document,
		"email":       event.Email,
		"role":        event.Role,
		"occurred_at": event.OccurredAt.UTC(),
		"recorded_at": time.Now().UTC(),
	}

	_, err := r.col.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		// Already recorded by a previous delivery.
		return nil
	}
	return err
}
