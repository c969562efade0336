package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/atica/user-roster/internal/api"
	"github.com/atica/user-roster/internal/api/handler"
	"github.com/atica/user-roster/internal/core/ports"
	"github.com/atica/user-roster/internal/core/service"
	"github.com/atica/user-roster/internal/infrastructure/config"
	mongostore "github.com/atica/user-roster/internal/infrastructure/db/mongo"
	redisstore "github.com/atica/user-roster/internal/infrastructure/db/redis"
	"github.com/atica/user-roster/internal/infrastructure/db/sqldb"
	"github.com/atica/user-roster/internal/infrastructure/http/handlers"
	"github.com/atica/user-roster/internal/infrastructure/queue"
	"github.com/atica/user-roster/pkg/logger"
)

// @title                       User Roster API
// @version                     1.0
// @description                 Roster of internal users with role-based visibility and soft deletion.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// store bundles the repositories of the selected backend with its probe and closer.
type store struct {
	users  ports.UserRepository
	audit  ports.AuditRepository
	ping   handlers.Pinger
	closer func(context.Context) error
}

func run() error {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "user-roster",
	})

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.closer(closeCtx); err != nil {
			log.Warn().Err(err).Msg("store close failed")
		}
	}()

	readiness := map[string]handlers.Pinger{"store": st.ping}

	var idem handler.IdempotencyStore
	if cfg.Redis.Enabled {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Attempts: cfg.ConnAttempts,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		idemStore := redisstore.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)
		idem = idemStore
		readiness["redis"] = idemStore
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis idempotency store enabled")
	}

	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, st.audit, log)
	// Audit writes outlive the signal context so queued events drain on shutdown.
	dispatcher.Start(context.WithoutCancel(ctx))

	users := service.NewUserService(st.users, dispatcher, log)

	router := api.NewRouter(api.Deps{
		Users:        users,
		Idempotency:  idem,
		Readiness:    readiness,
		JWTSecret:    cfg.JWTSecret,
		RateLimitRPS: cfg.RateLimitRPS,
		Logger:       log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownWait)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		dispatcher.Close()
		if err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Attempts: cfg.ConnAttempts,
		})
		if err != nil {
			return nil, err
		}
		users := mongostore.NewUserRepository(db)
		if err := users.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongo store ready")
		return &store{
			users:  users,
			audit:  mongostore.NewEventRepository(db),
			ping:   handlers.PingFunc(func(ctx context.Context) error { return client.Ping(ctx, nil) }),
			closer: client.Disconnect,
		}, nil

	case config.DriverPostgres, config.DriverSQLite:
		dialect, dsn := sqldb.Postgres, cfg.Postgres.DSN
		if cfg.StoreDriver == config.DriverSQLite {
			dialect, dsn = sqldb.SQLite, cfg.SQLite.Path
		}
		db, err := sqldb.Open(ctx, sqldb.Config{Dialect: dialect, DSN: dsn, Attempts: cfg.ConnAttempts})
		if err != nil {
			return nil, err
		}
		if err := sqldb.Migrate(ctx, db, dialect); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info().Str("dialect", dialect.Name).Msg("sql store ready")
		return &store{
			users:  sqldb.NewUserRepository(db, dialect),
			audit:  sqldb.NewEventRepository(db),
			ping:   handlers.PingFunc(db.PingContext),
			closer: closeSQL(db),
		}, nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}

func closeSQL(db *sql.DB) func(context.Context) error {
	return func(context.Context) error { return db.Close() }
}
