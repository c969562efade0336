package handler

import (
	"net/http"

	"github.com/atica/user-roster/internal/core/domain"
	"github.com/atica/user-roster/internal/core/ports"
)

func (r createUserRequest) toInput() ports.UserInput {
	return ports.UserInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Document:  r.Document,
		Email:     r.Email,
		Role:      r.Role,
		Active:    r.Active,
	}
}

func (r updateUserRequest) toInput(id int64) ports.UserInput {
	return ports.UserInput{
		ID:        id,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Document:  r.Document,
		Email:     r.Email,
		Role:      r.Role,
		Active:    r.Active,
	}
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		Document:  u.Document,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		Active:    u.Active,
	}
}

func toListResponse(users []domain.User) listUsersResponse {
	out := listUsersResponse{Users: make([]userResponse, len(users)), Total: len(users)}
	for i, u := range users {
		out.Users[i] = toUserResponse(u)
	}
	return out
}

func toOutcomeResponse(o ports.Outcome) outcomeResponse {
	return outcomeResponse{Success: o.Success, Message: o.Message, ID: o.ID}
}

// outcomeStatus maps an Outcome to its HTTP status. okStatus is used on success.
func outcomeStatus(o ports.Outcome, okStatus int) int {
	if o.Success {
		return okStatus
	}
	switch o.Reason {
	case ports.ReasonNotFound:
		return http.StatusNotFound
	case ports.ReasonDuplicate, ports.ReasonConflict:
		return http.StatusConflict
	case ports.ReasonInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}
