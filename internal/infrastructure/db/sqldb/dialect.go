package sqldb

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// Dialect holds what differs between the supported SQL engines: the
// database/sql driver name, the schema and how unique violations are reported.
type Dialect struct {
	Name       string
	DriverName string
	Schema     []string
	// uniqueViolation returns the violated constraint (or its description)
	// when err is a unique-key violation.
	uniqueViolation func(err error) (string, bool)
}

// Postgres targets PostgreSQL through pgx's database/sql driver.
var Postgres = Dialect{
	Name:       "postgres",
	DriverName: "pgx",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
			id         BIGSERIAL PRIMARY KEY,
			first_name VARCHAR(100) NOT NULL,
			last_name  VARCHAR(100) NOT NULL,
			document   VARCHAR(20)  NOT NULL,
			email      VARCHAR(150) NOT NULL,
			role       VARCHAR(50)  NOT NULL,
			created_at TIMESTAMPTZ  NOT NULL,
			active     BOOLEAN      NOT NULL DEFAULT TRUE
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_users_document_active ON users (document) WHERE active`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_users_email_active ON users (lower(email)) WHERE active`,
		`CREATE INDEX IF NOT EXISTS ix_users_listing ON users (role, last_name, first_name, id) WHERE active`,
		`CREATE TABLE IF NOT EXISTS user_events (
			id          TEXT        PRIMARY KEY,
			type        TEXT        NOT NULL,
			user_id     BIGINT      NOT NULL,
			document    TEXT        NOT NULL,
			email       TEXT        NOT NULL,
			role        TEXT        NOT NULL,
			occurred_at TIMESTAMPTZ NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL
		)`,
	},
	uniqueViolation: func(err error) (string, bool) {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return pgErr.ConstraintName, true
		}
		return "", false
	},
}

// SQLite targets mattn/go-sqlite3, used for local runs and tests.
var SQLite = Dialect{
	Name:       "sqlite",
	DriverName: "sqlite3",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			first_name TEXT      NOT NULL,
			last_name  TEXT      NOT NULL,
			document   TEXT      NOT NULL,
			email      TEXT      NOT NULL,
			role       TEXT      NOT NULL,
			created_at TIMESTAMP NOT NULL,
			active     BOOLEAN   NOT NULL DEFAULT 1
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_users_document_active ON users (document) WHERE active = 1`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_users_email_active ON users (lower(email)) WHERE active = 1`,
		`CREATE INDEX IF NOT EXISTS ix_users_listing ON users (role, last_name, first_name, id) WHERE active = 1`,
		`CREATE TABLE IF NOT EXISTS user_events (
			id          TEXT      PRIMARY KEY,
			type        TEXT      NOT NULL,
			user_id     INTEGER   NOT NULL,
			document    TEXT      NOT NULL,
			email       TEXT      NOT NULL,
			role        TEXT      NOT NULL,
			occurred_at TIMESTAMP NOT NULL,
			recorded_at TIMESTAMP NOT NULL
		)`,
	},
	uniqueViolation: func(err error) (string, bool) {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return sqliteErr.Error(), true
		}
		return "", false
	},
}

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, bool) {
	switch strings.ToLower(name) {
	case Postgres.Name, "postgresql", "pgx":
		return Postgres, true
	case SQLite.Name, "sqlite3":
		return SQLite, true
	}
	return Dialect{}, false
}
