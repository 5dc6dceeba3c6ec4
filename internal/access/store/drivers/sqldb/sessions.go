package sqldb

import (
	"context"
	"time"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
)

type sessionsRepo struct {
	q *queries
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.q.exec(ctx, `
		INSERT INTO sessions (id, user_id, ip_address, user_agent, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.IPAddress, s.UserAgent, r.q.ts(s.CreatedAt), r.q.ts(s.ExpiresAt),
	)
	return r.q.uniqueErr(err)
}

func (r *sessionsRepo) GetSession(ctx context.Context, id string) (domain.Session, error) {
	var s domain.Session
	err := r.q.queryRow(ctx, `
		SELECT id, user_id, ip_address, user_agent, created_at, expires_at, revoked_at
		FROM sessions WHERE id = ?`, id,
	).Scan(
		&s.ID,
		&s.UserID,
		&s.IPAddress,
		&s.UserAgent,
		timeCol{&s.CreatedAt},
		timeCol{&s.ExpiresAt},
		nullTimeCol{&s.RevokedAt},
	)
	return s, mapNotFound(err)
}

func (r *sessionsRepo) RevokeUserSessions(ctx context.Context, userID string, at time.Time) (int64, error) {
	res, err := r.q.exec(ctx,
		`UPDATE sessions SET revoked_at = ? WHERE user_id = ? AND revoked_at IS NULL`,
		r.q.ts(at), userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.exec(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, r.q.ts(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
