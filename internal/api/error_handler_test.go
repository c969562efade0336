package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/atica/user-roster/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, `{"error":"access forbidden"}`},
		{"wrapped not found", fmt.Errorf("load: %w", domain.ErrUserNotFound), http.StatusNotFound, `{"error":"user not found"}`},
		{"duplicate email", domain.ErrDuplicateEmail, http.StatusConflict, `{"error":"email already in use"}`},
		{"echo error", echo.NewHTTPError(http.StatusBadRequest, "invalid user id"), http.StatusBadRequest, `{"error":"invalid user id"}`},
		{"unexpected", errors.New("db down"), http.StatusInternalServerError, `{"error":"internal server error"}`},
	}

	e := echo.New()
	handle := NewHTTPErrorHandler(zerolog.Nop())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/users", nil), rec)

			handle(tc.err, c)

			if rec.Code != tc.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tc.wantCode)
			}
			if got := rec.Body.String(); got != tc.wantBody+"\n" {
				t.Errorf("body = %q, want %q", got, tc.wantBody)
			}
		})
	}
}
