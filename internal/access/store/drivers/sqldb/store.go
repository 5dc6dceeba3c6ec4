package sqldb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aussiebroadwan/tenantgate/internal/access/store"
)

// MigrateFunc applies the driver's embedded migrations to db.
type MigrateFunc func(db *sql.DB) error

// Store implements store.Store on top of database/sql.
type Store struct {
	db      *sql.DB
	q       *queries
	migrate MigrateFunc
}

// New wraps an open database. Drivers call it after configuring the pool.
func New(db *sql.DB, d Dialect, migrate MigrateFunc) *Store {
	return &Store{
		db:      db,
		q:       &queries{db: db, d: d},
		migrate: migrate,
	}
}

// DB exposes the pool, mainly for tests.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ApplyMigrations runs the driver's embedded migrations.
func (s *Store) ApplyMigrations() error {
	if s.migrate == nil {
		return errors.New("sqldb: no migrations configured")
	}
	return s.migrate(s.db)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &txStore{tx: tx, q: &queries{db: tx, d: s.q.d}}, nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Users() store.Users                 { return &usersRepo{q: s.q} }
func (s *Store) Sessions() store.Sessions           { return &sessionsRepo{q: s.q} }
func (s *Store) LoginAttempts() store.LoginAttempts { return &attemptsRepo{q: s.q} }
func (s *Store) AccountLocks() store.AccountLocks   { return &locksRepo{q: s.q} }
func (s *Store) TwoFactor() store.TwoFactor         { return &twoFactorRepo{q: s.q} }
func (s *Store) RecoveryCodes() store.RecoveryCodes { return &recoveryCodesRepo{q: s.q} }
func (s *Store) SessionVerifications() store.SessionVerifications {
	return &verificationsRepo{q: s.q}
}
func (s *Store) Licenses() store.Licenses { return &licensesRepo{q: s.q} }

type txStore struct {
	tx *sql.Tx
	q  *queries
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Close is a no-op, the outer pool stays open.
func (t *txStore) Close() error { return nil }

// Ping is a no-op, the transaction already holds a live connection.
func (t *txStore) Ping(context.Context) error { return nil }

// Nested transactions are not supported.
func (t *txStore) Tx(context.Context) (store.Tx, error) { return nil, sql.ErrTxDone }

func (t *txStore) WithTx(context.Context, func(store.Tx) error) error { return sql.ErrTxDone }

// ApplyMigrations is a no-op, migrations run before any transaction.
func (t *txStore) ApplyMigrations() error { return nil }

func (t *txStore) Users() store.Users                 { return &usersRepo{q: t.q} }
func (t *txStore) Sessions() store.Sessions           { return &sessionsRepo{q: t.q} }
func (t *txStore) LoginAttempts() store.LoginAttempts { return &attemptsRepo{q: t.q} }
func (t *txStore) AccountLocks() store.AccountLocks   { return &locksRepo{q: t.q} }
func (t *txStore) TwoFactor() store.TwoFactor         { return &twoFactorRepo{q: t.q} }
func (t *txStore) RecoveryCodes() store.RecoveryCodes { return &recoveryCodesRepo{q: t.q} }
func (t *txStore) SessionVerifications() store.SessionVerifications {
	return &verificationsRepo{q: t.q}
}
func (t *txStore) Licenses() store.Licenses { return &licensesRepo{q: t.q} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

var (
	_ store.Store = (*Store)(nil)
	_ store.Tx    = (*txStore)(nil)
)
