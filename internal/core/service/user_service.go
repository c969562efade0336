package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/atica/user-roster/internal/core/domain"
	"github.com/atica/user-roster/internal/core/ports"
	"github.com/atica/user-roster/internal/platform/metrics"
)

const (
	opCreate     = "create"
	opUpdate     = "update"
	opDelete     = "delete"
	opReactivate = "reactivate"
)

// User-facing outcome messages.
const (
	msgCreated          = "user created successfully"
	msgUpdated          = "user updated successfully"
	msgDeleted          = "user deleted successfully"
	msgReactivated      = "user reactivated successfully"
	msgNotFound         = "user not found"
	msgDocumentInUse    = "document already in use"
	msgEmailInUse       = "email already in use"
	msgDocumentTaken    = "document already in use by another user"
	msgEmailTaken       = "email already in use by another user"
	msgCouldNotUpdate   = "could not update"
	msgCouldNotDelete   = "could not delete"
	msgCouldNotReactive = "could not reactivate"
	msgAlreadyActive    = "user is already active"
	msgUnexpected       = "an unexpected error occurred, try again"
)

// UserService holds every roster business rule. It is stateless: each call is
// a short check-then-act sequence against the repository, and uniqueness is
// ultimately guarded by the store's own constraints.
type UserService struct {
	repo      ports.UserRepository
	publisher ports.EventPublisher
	logger    zerolog.Logger
	now       func() time.Time
}

// NewUserService returns a UserService. publisher may be nil, in which case no
// audit events are emitted.
func NewUserService(repo ports.UserRepository, publisher ports.EventPublisher, logger zerolog.Logger) *UserService {
	return &UserService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the clock used to stamp CreatedAt.
func (s *UserService) WithClock(now func() time.Time) *UserService {
	s.now = now
	return s
}

// ListUsers returns the active users visible to currentRole: everyone for an
// administrator, otherwise only users sharing the caller's role.
func (s *UserService) ListUsers(ctx context.Context, currentRole string) ([]domain.User, error) {
	s.logger.Debug().Str("role", currentRole).Msg("listing users")

	var (
		users []domain.User
		err   error
	)
	if domain.IsAdministrator(currentRole) {
		users, err = s.repo.ListActive(ctx)
	} else {
		users, err = s.repo.ListByRole(ctx, currentRole)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("role", currentRole).Msg("failed to list users")
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetUser returns the user with the given ID, active or not, or nil when absent.
func (s *UserService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to get user")
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

// CreateUser validates and stores a new roster entry. Document is checked
// before email so a double conflict always reports the document.
func (s *UserService) CreateUser(ctx context.Context, input ports.UserInput) ports.Outcome {
	in := normalize(input)
	log := s.logger.With().Str("operation", opCreate).Str("email", in.Email).Logger()
	log.Info().Msg("creating user")

	if msg := missingField(in); msg != "" {
		return s.reject(opCreate, ports.ReasonInvalid, msg)
	}

	exists, err := s.repo.DocumentExists(ctx, in.Document, 0)
	if err != nil {
		return s.fail(log, opCreate, fmt.Errorf("check document: %w", err))
	}
	if exists {
		log.Warn().Str("document", in.Document).Msg("duplicate document")
		return s.reject(opCreate, ports.ReasonDuplicate, msgDocumentInUse)
	}

	exists, err = s.repo.EmailExists(ctx, in.Email, 0)
	if err != nil {
		return s.fail(log, opCreate, fmt.Errorf("check email: %w", err))
	}
	if exists {
		log.Warn().Msg("duplicate email")
		return s.reject(opCreate, ports.ReasonDuplicate, msgEmailInUse)
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}
	u := &domain.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Document:  in.Document,
		Email:     in.Email,
		Role:      in.Role,
		CreatedAt: s.now().UTC(),
		Active:    active,
	}

	id, err := s.repo.Create(ctx, u)
	if err != nil {
		if out, ok := s.storeConflict(log, opCreate, err, msgDocumentInUse, msgEmailInUse); ok {
			return out
		}
		return s.fail(log, opCreate, fmt.Errorf("create user: %w", err))
	}
	u.ID = id

	log.Info().Int64("user_id", id).Msg("user created")
	s.publish(ctx, domain.EventUserCreated, u)
	out := s.succeed(opCreate, msgCreated)
	out.ID = id
	return out
}

// UpdateUser replaces every field of an existing user except its ID and
// creation time. A nil Active keeps the stored flag.
func (s *UserService) UpdateUser(ctx context.Context, input ports.UserInput) ports.Outcome {
	in := normalize(input)
	log := s.logger.With().Str("operation", opUpdate).Int64("user_id", in.ID).Logger()
	log.Info().Msg("updating user")

	existing, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		return s.fail(log, opUpdate, fmt.Errorf("load user: %w", err))
	}
	if existing == nil {
		log.Warn().Msg("user not found")
		return s.reject(opUpdate, ports.ReasonNotFound, msgNotFound)
	}

	if msg := missingField(in); msg != "" {
		return s.reject(opUpdate, ports.ReasonInvalid, msg)
	}

	exists, err := s.repo.DocumentExists(ctx, in.Document, in.ID)
	if err != nil {
		return s.fail(log, opUpdate, fmt.Errorf("check document: %w", err))
	}
	if exists {
		log.Warn().Str("document", in.Document).Msg("document held by another user")
		return s.reject(opUpdate, ports.ReasonDuplicate, msgDocumentTaken)
	}

	exists, err = s.repo.EmailExists(ctx, in.Email, in.ID)
	if err != nil {
		return s.fail(log, opUpdate, fmt.Errorf("check email: %w", err))
	}
	if exists {
		log.Warn().Str("email", in.Email).Msg("email held by another user")
		return s.reject(opUpdate, ports.ReasonDuplicate, msgEmailTaken)
	}

	existing.FirstName = in.FirstName
	existing.LastName = in.LastName
	existing.Document = in.Document
	existing.Email = in.Email
	existing.Role = in.Role
	if in.Active != nil {
		existing.Active = *in.Active
	}

	ok, err := s.repo.Update(ctx, existing)
	if err != nil {
		if out, ok := s.storeConflict(log, opUpdate, err, msgDocumentTaken, msgEmailTaken); ok {
			return out
		}
		return s.fail(log, opUpdate, fmt.Errorf("update user: %w", err))
	}
	if !ok {
		// Deleted between the load and the write.
		log.Warn().Msg("no row matched on update")
		return s.reject(opUpdate, ports.ReasonConflict, msgCouldNotUpdate)
	}

	log.Info().Msg("user updated")
	s.publish(ctx, domain.EventUserUpdated, existing)
	return s.succeed(opUpdate, msgUpdated)
}

// DeleteUser soft-deletes a user by flipping its active flag.
func (s *UserService) DeleteUser(ctx context.Context, id int64) ports.Outcome {
	log := s.logger.With().Str("operation", opDelete).Int64("user_id", id).Logger()
	log.Info().Msg("deleting user")

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return s.fail(log, opDelete, fmt.Errorf("load user: %w", err))
	}
	if u == nil {
		log.Warn().Msg("user not found")
		return s.reject(opDelete, ports.ReasonNotFound, msgNotFound)
	}

	ok, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return s.fail(log, opDelete, fmt.Errorf("soft delete: %w", err))
	}
	if !ok {
		log.Warn().Msg("no row matched on delete")
		return s.reject(opDelete, ports.ReasonConflict, msgCouldNotDelete)
	}

	u.Active = false
	log.Info().Msg("user deleted")
	s.publish(ctx, domain.EventUserDeleted, u)
	return s.succeed(opDelete, msgDeleted)
}

// ReactivateUser brings a soft-deleted user back, provided its document and
// email are not held by another active user in the meantime.
func (s *UserService) ReactivateUser(ctx context.Context, id int64) ports.Outcome {
	log := s.logger.With().Str("operation", opReactivate).Int64("user_id", id).Logger()
	log.Info().Msg("reactivating user")

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return s.fail(log, opReactivate, fmt.Errorf("load user: %w", err))
	}
	if u == nil {
		log.Warn().Msg("user not found")
		return s.reject(opReactivate, ports.ReasonNotFound, msgNotFound)
	}
	if u.Active {
		return s.reject(opReactivate, ports.ReasonConflict, msgAlreadyActive)
	}

	exists, err := s.repo.DocumentExists(ctx, u.Document, id)
	if err != nil {
		return s.fail(log, opReactivate, fmt.Errorf("check document: %w", err))
	}
	if exists {
		log.Warn().Str("document", u.Document).Msg("document held by another user")
		return s.reject(opReactivate, ports.ReasonDuplicate, msgDocumentTaken)
	}

	exists, err = s.repo.EmailExists(ctx, u.Email, id)
	if err != nil {
		return s.fail(log, opReactivate, fmt.Errorf("check email: %w", err))
	}
	if exists {
		log.Warn().Str("email", u.Email).Msg("email held by another user")
		return s.reject(opReactivate, ports.ReasonDuplicate, msgEmailTaken)
	}

	ok, err := s.repo.Reactivate(ctx, id)
	if err != nil {
		if out, ok := s.storeConflict(log, opReactivate, err, msgDocumentTaken, msgEmailTaken); ok {
			return out
		}
		return s.fail(log, opReactivate, fmt.Errorf("reactivate: %w", err))
	}
	if !ok {
		log.Warn().Msg("no row matched on reactivate")
		return s.reject(opReactivate, ports.ReasonConflict, msgCouldNotReactive)
	}

	u.Active = true
	log.Info().Msg("user reactivated")
	s.publish(ctx, domain.EventUserReactivated, u)
	return s.succeed(opReactivate, msgReactivated)
}

// CanAccessData grants access to any caller presenting a non-empty role.
func (s *UserService) CanAccessData(role string) bool {
	return role != ""
}

// normalize trims the identifying fields and lower-cases the email.
// Role is passed through as given.
func normalize(in ports.UserInput) ports.UserInput {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Document = strings.TrimSpace(in.Document)
	in.Email = domain.NormalizeEmail(in.Email)
	return in
}

func missingField(in ports.UserInput) string {
	switch {
	case in.FirstName == "":
		return "first name is required"
	case in.LastName == "":
		return "last name is required"
	case in.Document == "":
		return "document is required"
	case in.Email == "":
		return "email is required"
	case in.Role == "":
		return "role is required"
	}
	return ""
}

// storeConflict turns a uniqueness violation reported by the store into the
// matching duplicate outcome.
func (s *UserService) storeConflict(log zerolog.Logger, op string, err error, docMsg, emailMsg string) (ports.Outcome, bool) {
	switch {
	case errors.Is(err, domain.ErrDuplicateDocument):
		log.Warn().Err(err).Msg("store rejected duplicate document")
		return s.reject(op, ports.ReasonDuplicate, docMsg), true
	case errors.Is(err, domain.ErrDuplicateEmail):
		log.Warn().Err(err).Msg("store rejected duplicate email")
		return s.reject(op, ports.ReasonDuplicate, emailMsg), true
	}
	return ports.Outcome{}, false
}

func (s *UserService) succeed(op, msg string) ports.Outcome {
	metrics.UserOperationsTotal.WithLabelValues(op, "success").Inc()
	return ports.Outcome{Success: true, Message: msg}
}

func (s *UserService) reject(op string, reason ports.OutcomeReason, msg string) ports.Outcome {
	metrics.UserOperationsTotal.WithLabelValues(op, string(reason)).Inc()
	return ports.Outcome{Message: msg, Reason: reason}
}

// fail logs the real cause and returns an outcome that leaks none of it.
func (s *UserService) fail(log zerolog.Logger, op string, err error) ports.Outcome {
	log.Error().Err(err).Msg("user operation failed")
	return s.reject(op, ports.ReasonInternal, msgUnexpected)
}

func (s *UserService) publish(ctx context.Context, typ domain.UserEventType, u *domain.User) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, domain.UserEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		UserID:     u.ID,
		Document:   u.Document,
		Email:      u.Email,
		Role:       u.Role,
		OccurredAt: s.now().UTC(),
	})
}
