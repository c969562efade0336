package ports

import (
	"context"

	"github.com/atica/user-roster/internal/core/domain"
)

// UserRepository is the persistence contract for roster entries. It holds no
// business rules: infrastructure failures are returned as errors and are never
// folded into "not found" or false.
type UserRepository interface {
	// ListActive returns active users ordered by last name, first name and ID.
	ListActive(ctx context.Context) ([]domain.User, error)
	// GetByID returns the user whether active or not, or (nil, nil) when absent.
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	// ListByRole returns active users holding role, ordered like ListActive.
	ListByRole(ctx context.Context, role string) ([]domain.User, error)
	// Create persists u (CreatedAt already set by the caller) and returns the assigned ID.
	// A storage uniqueness violation wraps domain.ErrDuplicateDocument or domain.ErrDuplicateEmail.
	Create(ctx context.Context, u *domain.User) (int64, error)
	// Update overwrites the mutable fields of u by ID. false means no row matched.
	Update(ctx context.Context, u *domain.User) (bool, error)
	// SoftDelete marks the user inactive. false means no row matched.
	SoftDelete(ctx context.Context, id int64) (bool, error)
	// Reactivate marks the user active again. false means no row matched.
	Reactivate(ctx context.Context, id int64) (bool, error)
	// DocumentExists reports whether an active user holds document.
	// excludeID, when non-zero, is left out of the scan.
	DocumentExists(ctx context.Context, document string, excludeID int64) (bool, error)
	// EmailExists is DocumentExists for email, compared case-insensitively.
	EmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
}
