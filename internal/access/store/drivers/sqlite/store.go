package sqlite

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/aussiebroadwan/tenantgate/internal/access/store/drivers/sqldb"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect is the sqlite flavour of the shared SQL repositories.
var Dialect = sqldb.Dialect{
	Name:              "sqlite",
	TextTimes:         true,
	IsUniqueViolation: IsUniqueViolation,
}

// NewStore opens a sqlite database. Foreign keys and a busy timeout are
// enabled through the DSN unless the caller already passed options.
func NewStore(dsn string) (*sqldb.Store, error) {
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// One writer at a time. This also keeps :memory: databases shared
	// between every caller of the pool. Never use the non tx repos inside
	// WithTx, that would wait on the connection the tx is holding.
	db.SetMaxOpenConns(1)

	return sqldb.New(db, Dialect, ApplyMigrations), nil
}

// IsUniqueViolation reports whether err is a unique or primary key violation.
func IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}
