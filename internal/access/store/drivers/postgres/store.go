package postgres

import (
	"database/sql"
	"errors"

	"github.com/aussiebroadwan/tenantgate/internal/access/store/drivers/sqldb"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
)

// Dialect is the postgres flavour of the shared SQL repositories.
var Dialect = sqldb.Dialect{
	Name:              "postgres",
	NumberedParams:    true,
	IsUniqueViolation: IsUniqueViolation,
}

const uniqueViolation = "23505"

// NewStore opens a postgres database through the pgx stdlib adapter.
func NewStore(url string) (*sqldb.Store, error) {
	cfg, err := pgx.ParseConfig(url)
	if err != nil {
		return nil, err
	}

	db := stdlib.OpenDB(*cfg)
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)

	migrate := func(*sql.DB) error { return ApplyMigrations(cfg) }
	return sqldb.New(db, Dialect, migrate), nil
}

// IsUniqueViolation reports whether err is a unique_violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
