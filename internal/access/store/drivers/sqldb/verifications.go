package sqldb

import (
	"context"
	"time"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
)

type verificationsRepo struct {
	q *queries
}

func (r *verificationsRepo) UpsertVerification(ctx context.Context, v domain.SessionVerification) error {
	_, err := r.q.exec(ctx, `
		INSERT INTO session_verifications (user_id, session_id, verified_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, session_id) DO UPDATE SET
			verified_at = excluded.verified_at,
			expires_at = excluded.expires_at`,
		v.UserID, v.SessionID, r.q.ts(v.VerifiedAt), r.q.ts(v.ExpiresAt),
	)
	return err
}

func (r *verificationsRepo) GetVerification(ctx context.Context, userID, sessionID string) (domain.SessionVerification, error) {
	var v domain.SessionVerification
	err := r.q.queryRow(ctx, `
		SELECT user_id, session_id, verified_at, expires_at
		FROM session_verifications WHERE user_id = ? AND session_id = ?`,
		userID, sessionID,
	).Scan(&v.UserID, &v.SessionID, timeCol{&v.VerifiedAt}, timeCol{&v.ExpiresAt})
	return v, mapNotFound(err)
}

func (r *verificationsRepo) DeleteUserVerifications(ctx context.Context, userID string) (int64, error) {
	res, err := r.q.exec(ctx, `DELETE FROM session_verifications WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *verificationsRepo) DeleteExpiredVerifications(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.exec(ctx, `DELETE FROM session_verifications WHERE expires_at <= ?`, r.q.ts(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
