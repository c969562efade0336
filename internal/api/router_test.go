package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/atica/user-roster/internal/core/service"
	"github.com/atica/user-roster/internal/infrastructure/db/sqldb"
	"github.com/atica/user-roster/internal/infrastructure/http/handlers"
	"github.com/atica/user-roster/internal/platform/token"
)

const testSecret = "router-test-secret"

func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()
	ctx := context.Background()
	db, err := sqldb.Open(ctx, sqldb.Config{Dialect: sqldb.SQLite, DSN: ":memory:", Attempts: 1})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := sqldb.Migrate(ctx, db, sqldb.SQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc := service.NewUserService(sqldb.NewUserRepository(db, sqldb.SQLite), nil, zerolog.Nop())
	return NewRouter(Deps{
		Users:        svc,
		Readiness:    map[string]handlers.Pinger{"store": handlers.PingFunc(db.PingContext)},
		JWTSecret:    testSecret,
		RateLimitRPS: 1000,
		Logger:       zerolog.Nop(),
	})
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	raw, err := token.Issue(testSecret, "tester", role, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return "Bearer " + raw
}

func do(e *echo.Echo, method, path, auth, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRouter_RosterFlow(t *testing.T) {
	e := newTestRouter(t)
	admin := bearer(t, "Administrator")
	user := bearer(t, "User")

	rec := do(e, http.MethodPost, "/v1/users", admin,
		`{"first_name":"Ana","last_name":"Gomez","document":"1001","email":"Ana@Mail.com","role":"User"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var created struct {
		Success bool  `json:"success"`
		ID      int64 `json:"id"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &created)
	if !created.Success || created.ID == 0 {
		t.Fatalf("unexpected create payload: %s", rec.Body.String())
	}

	rec = do(e, http.MethodPost, "/v1/users", admin,
		`{"first_name":"Bob","last_name":"Diaz","document":"1001","email":"bob@mail.com","role":"User"}`)
	if rec.Code != http.StatusConflict || !strings.Contains(rec.Body.String(), "document already in use") {
		t.Fatalf("duplicate: expected 409, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodGet, "/v1/users", user, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"email":"ana@mail.com"`) {
		t.Fatalf("list: got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodDelete, "/v1/users/1", admin, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodGet, "/v1/users", user, "")
	if !strings.Contains(rec.Body.String(), `"total":0`) {
		t.Fatalf("deleted user still listed: %s", rec.Body.String())
	}

	rec = do(e, http.MethodGet, "/v1/users/1", user, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"active":false`) {
		t.Fatalf("get inactive: got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodPost, "/v1/users/1/reactivate", admin, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reactivate: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodPut, "/v1/users/1", admin,
		`{"first_name":"Ana","last_name":"Gomez","document":"1001","email":"ana@mail.com","role":"User","active":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("deactivating update: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	rec = do(e, http.MethodGet, "/v1/users/1", user, "")
	if !strings.Contains(rec.Body.String(), `"active":false`) {
		t.Fatalf("update did not deactivate: %s", rec.Body.String())
	}

	rec = do(e, http.MethodGet, "/v1/users/99", user, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get missing: expected 404, got %d", rec.Code)
	}
}

func TestRouter_AccessControl(t *testing.T) {
	e := newTestRouter(t)
	body := `{"first_name":"Ana","last_name":"Gomez","document":"1001","email":"ana@mail.com","role":"User"}`

	if rec := do(e, http.MethodGet, "/v1/users", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", rec.Code)
	}
	if rec := do(e, http.MethodPost, "/v1/users", bearer(t, "User"), body); rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin write: expected 403, got %d", rec.Code)
	}
	if rec := do(e, http.MethodPost, "/v1/users", bearer(t, "administrator"), body); rec.Code != http.StatusCreated {
		t.Fatalf("lower-case admin write: expected 201, got %d", rec.Code)
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	e := newTestRouter(t)

	for _, path := range []string{"/health", "/health/ready", "/metrics"} {
		if rec := do(e, http.MethodGet, path, "", ""); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}
