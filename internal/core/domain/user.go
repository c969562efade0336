package domain

import (
	"strings"
	"time"
)

// Role labels recognised by the roster. Other values pass through untouched.
const (
	RoleAdministrator = "Administrator"
	RoleUser          = "User"
)

// IsAdministrator reports whether role denotes the administrator role.
// The comparison ignores case, so "administrator" and "ADMINISTRATOR" match too.
func IsAdministrator(role string) bool {
	return strings.EqualFold(role, RoleAdministrator)
}

// User is a single roster entry.
type User struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Document  string    `json:"document"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	Active    bool      `json:"active"`
}

// FullName joins the given and family names.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeEmail trims and lower-cases an address, the form in which emails are stored and compared.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
