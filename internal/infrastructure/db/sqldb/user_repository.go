package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/atica/user-roster/internal/core/domain"
)

const userColumns = `id, first_name, last_name, document, email, role, created_at, active`

const listOrder = ` ORDER BY last_name, first_name, id`

// UserRepository implements ports.UserRepository on database/sql. Document and
// email uniqueness among active users is backed by partial unique indexes.
type UserRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewUserRepository(db *sql.DB, d Dialect) *UserRepository {
	return &UserRepository{db: db, dialect: d}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (domain.User, error) {
	var u domain.User
	err := s.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Document, &u.Email, &u.Role, &u.CreatedAt, &u.Active)
	u.CreatedAt = u.CreatedAt.UTC()
	return u, err
}

// ListActive returns active users ordered by last name, first name and ID.
func (r *UserRepository) ListActive(ctx context.Context) ([]domain.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users WHERE active = TRUE`+listOrder)
}

// ListByRole returns active users with the given role.
func (r *UserRepository) ListByRole(ctx context.Context, role string) ([]domain.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users WHERE active = TRUE AND role = $1`+listOrder, role)
}

func (r *UserRepository) list(ctx context.Context, query string, args ...any) ([]domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// GetByID returns the user with the given ID regardless of its active flag,
// or nil when no row matches.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// Create inserts the user and returns the generated ID.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (first_name, last_name, document, email, role, created_at, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		u.FirstName, u.LastName, u.Document, domain.NormalizeEmail(u.Email), u.Role, u.CreatedAt.UTC(), u.Active,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", r.classify(err))
	}
	return id, nil
}

// Update overwrites every field but ID and CreatedAt.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET first_name = $1, last_name = $2, document = $3, email = $4, role = $5, active = $6 WHERE id = $7`,
		u.FirstName, u.LastName, u.Document, domain.NormalizeEmail(u.Email), u.Role, u.Active, u.ID,
	)
	if err != nil {
		return false, fmt.Errorf("update user: %w", r.classify(err))
	}
	return affected(res)
}

// SoftDelete clears the active flag.
func (r *UserRepository) SoftDelete(ctx context.Context, id int64) (bool, error) {
	return r.setActive(ctx, id, false)
}

// Reactivate sets the active flag again.
func (r *UserRepository) Reactivate(ctx context.Context, id int64) (bool, error) {
	return r.setActive(ctx, id, true)
}

func (r *UserRepository) setActive(ctx context.Context, id int64, active bool) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE users SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return false, fmt.Errorf("set active=%t: %w", active, r.classify(err))
	}
	return affected(res)
}

// DocumentExists reports whether an active user other than excludeID holds document.
func (r *UserRepository) DocumentExists(ctx context.Context, document string, excludeID int64) (bool, error) {
	return r.exists(ctx, `document = $1`, document, excludeID)
}

// EmailExists reports whether an active user other than excludeID holds email,
// compared case-insensitively.
func (r *UserRepository) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	return r.exists(ctx, `lower(email) = lower($1)`, strings.TrimSpace(email), excludeID)
}

func (r *UserRepository) exists(ctx context.Context, cond string, value string, excludeID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var found bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE active = TRUE AND `+cond+
			` AND (CAST($2 AS BIGINT) = 0 OR id <> CAST($2 AS BIGINT)))`,
		value, excludeID,
	).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return found, nil
}

// classify maps a unique violation to the matching domain error.
func (r *UserRepository) classify(err error) error {
	name, ok := r.dialect.uniqueViolation(err)
	if !ok {
		return err
	}
	switch {
	case strings.Contains(name, "document"):
		return fmt.Errorf("%w: %v", domain.ErrDuplicateDocument, err)
	case strings.Contains(name, "email"):
		return fmt.Errorf("%w: %v", domain.ErrDuplicateEmail, err)
	}
	return err
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
