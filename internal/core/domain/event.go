package domain

import "time"

// UserEventType names a change applied to a roster entry.
type UserEventType string

const (
	EventUserCreated     UserEventType = "user.created"
	EventUserUpdated     UserEventType = "user.updated"
	EventUserDeleted     UserEventType = "user.deleted"
	EventUserReactivated UserEventType = "user.reactivated"
)

// UserEvent is the audit record emitted after every successful write.
type UserEvent struct {
	ID         string        `json:"id"`
	Type       UserEventType `json:"type"`
	UserID     int64         `json:"user_id"`
	Document   string        `json:"document,omitempty"`
	Email      string        `json:"email,omitempty"`
	Role       string        `json:"role,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}
