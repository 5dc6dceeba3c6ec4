package sqldb

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
)

type locksRepo struct {
	q *queries
}

const lockColumns = `id, user_id, email, locked_at, locked_until, reason, unlocked_at, unlocked_by`

func scanLock(row interface{ Scan(...any) error }) (domain.AccountLock, error) {
	var l domain.AccountLock
	var by sql.NullString
	err := row.Scan(
		&l.ID,
		&l.UserID,
		&l.Email,
		timeCol{&l.LockedAt},
		nullTimeCol{&l.LockedUntil},
		&l.Reason,
		nullTimeCol{&l.UnlockedAt},
		&by,
	)
	l.UnlockedBy = stringPtr(by)
	return l, err
}

func (r *locksRepo) CreateLock(ctx context.Context, l domain.AccountLock, now time.Time) error {
	// An expired lock still occupies the open-lock slot until it is sealed.
	if _, err := r.q.exec(ctx, `
		UPDATE account_locks
		SET unlocked_at = locked_until, unlocked_by = ?
		WHERE user_id = ? AND unlocked_at IS NULL
		  AND locked_until IS NOT NULL AND locked_until <= ?`,
		domain.UnlockedByExpiry, l.UserID, r.q.ts(now),
	); err != nil {
		return err
	}

	_, err := r.q.exec(ctx, `
		INSERT INTO account_locks (id, user_id, email, locked_at, locked_until, reason)
		VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.Email, r.q.ts(l.LockedAt), r.q.nullTS(l.LockedUntil), l.Reason,
	)
	return r.q.uniqueErr(err)
}

func (r *locksRepo) GetOpenLock(ctx context.Context, userID string) (domain.AccountLock, error) {
	l, err := scanLock(r.q.queryRow(ctx,
		`SELECT `+lockColumns+` FROM account_locks WHERE user_id = ? AND unlocked_at IS NULL`, userID))
	return l, mapNotFound(err)
}

func (r *locksRepo) GetLatestLockByEmail(ctx context.Context, email string) (domain.AccountLock, error) {
	l, err := scanLock(r.q.queryRow(ctx, `
		SELECT `+lockColumns+` FROM account_locks
		WHERE email = ?
		ORDER BY locked_at DESC, id DESC
		LIMIT 1`, email))
	return l, mapNotFound(err)
}

func (r *locksRepo) SealOpenLock(ctx context.Context, userID, by string, at time.Time) (bool, error) {
	res, err := r.q.exec(ctx, `
		UPDATE account_locks SET unlocked_at = ?, unlocked_by = ?
		WHERE user_id = ? AND unlocked_at IS NULL`,
		r.q.ts(at), by, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
