package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type createUserRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name"  validate:"required,max=100"`
	Document  string `json:"document"   validate:"required,numeric,max=20"`
	Email     string `json:"email"      validate:"required,email,max=150"`
	Role      string `json:"role"       validate:"required,max=50"`
	// Active defaults to true when omitted.
	Active *bool `json:"active,omitempty"`
}

type updateUserRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name"  validate:"required,max=100"`
	Document  string `json:"document"   validate:"required,numeric,max=20"`
	Email     string `json:"email"      validate:"required,email,max=150"`
	Role      string `json:"role"       validate:"required,max=50"`
	// Active keeps the stored flag when omitted.
	Active *bool `json:"active,omitempty"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	FullName  string    `json:"full_name"`
	Document  string    `json:"document"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	Active    bool      `json:"active"`
}

type listUsersResponse struct {
	Users []userResponse `json:"users"`
	Total int            `json:"total"`
}

type outcomeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      int64  `json:"id,omitempty"`
}
