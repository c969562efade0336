package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	// Registers the generated OpenAPI document served under /swagger.
	_ "github.com/atica/user-roster/docs"

	"github.com/atica/user-roster/internal/api/handler"
	"github.com/atica/user-roster/internal/api/middleware"
	"github.com/atica/user-roster/internal/core/domain"
	"github.com/atica/user-roster/internal/core/ports"
	"github.com/atica/user-roster/internal/infrastructure/http/handlers"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Users ports.UserService
	// Idempotency is optional; nil disables Idempotency-Key handling.
	Idempotency handler.IdempotencyStore
	// Readiness lists the dependencies pinged by /health/ready.
	Readiness    map[string]handlers.Pinger
	JWTSecret    string
	RateLimitRPS float64
	Logger       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))
	e.Use(middleware.Metrics())

	// --- Health probes and tooling (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.Readiness)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Roster API ---
	users := handler.NewUserHandler(d.Users, d.Idempotency, d.Logger)
	adminOnly := middleware.RBAC(domain.RoleAdministrator)
	limit := writeRateLimiter(d.RateLimitRPS)

	v1 := e.Group("/v1", middleware.Auth(d.JWTSecret))
	v1.GET("/users", users.List)
	v1.GET("/users/:id", users.Get)
	v1.POST("/users", users.Create, adminOnly, limit)
	v1.PUT("/users/:id", users.Update, adminOnly, limit)
	v1.DELETE("/users/:id", users.Delete, adminOnly, limit)
	v1.POST("/users/:id/reactivate", users.Reactivate, adminOnly, limit)

	return e
}

// writeRateLimiter throttles write routes per client IP.
func writeRateLimiter(rps float64) echo.MiddlewareFunc {
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(rps),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		},
	})
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
