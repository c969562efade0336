package ports

import (
	"context"

	"github.com/atica/user-roster/internal/core/domain"
)

// UserInput carries the editable fields of a roster entry from the transport layer.
// ID is ignored on create.
type UserInput struct {
	ID        int64
	FirstName string
	LastName  string
	Document  string
	Email     string
	Role      string
	// Active defaults to true on create when nil; on update nil keeps the stored flag.
	Active *bool
}

// Outcome is the result of every write operation. Message is safe to show to
// end users; ID is only set by a successful create.
type Outcome struct {
	Success bool
	Message string
	ID      int64
	// Reason classifies a failed outcome for transports that need a status code.
	Reason OutcomeReason
}

// OutcomeReason classifies failed outcomes.
type OutcomeReason string

const (
	ReasonNone      OutcomeReason = ""
	ReasonInvalid   OutcomeReason = "invalid"
	ReasonNotFound  OutcomeReason = "not_found"
	ReasonDuplicate OutcomeReason = "duplicate"
	ReasonConflict  OutcomeReason = "conflict"
	ReasonInternal  OutcomeReason = "internal"
)

// UserService defines the roster use cases.
type UserService interface {
	ListUsers(ctx context.Context, currentRole string) ([]domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	CreateUser(ctx context.Context, input UserInput) Outcome
	UpdateUser(ctx context.Context, input UserInput) Outcome
	DeleteUser(ctx context.Context, id int64) Outcome
	ReactivateUser(ctx context.Context, id int64) Outcome
	CanAccessData(role string) bool
}
