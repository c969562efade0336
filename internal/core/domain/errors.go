package domain

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateDocument = errors.New("document already in use")
	ErrDuplicateEmail    = errors.New("email already in use")
	ErrForbidden         = errors.New("access forbidden")
)
