package sqldb

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
)

type attemptsRepo struct {
	q *queries
}

func (r *attemptsRepo) CreateLoginAttempt(ctx context.Context, a domain.LoginAttempt) error {
	_, err := r.q.exec(ctx, `
		INSERT INTO login_attempts (id, email, kind, success, user_id, user_agent, ip_address, attempted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.Email,
		string(a.Kind),
		a.Success,
		nullString(a.UserID),
		a.UserAgent,
		a.IPAddress,
		r.q.ts(a.AttemptedAt),
	)
	return err
}

func (r *attemptsRepo) CountFailuresSince(ctx context.Context, email string, kind domain.AttemptKind, since time.Time) (int, error) {
	var n int
	err := r.q.queryRow(ctx, `
		SELECT COUNT(*) FROM login_attempts
		WHERE email = ? AND kind = ? AND success = ? AND attempted_at >= ?`,
		email, string(kind), false, r.q.ts(since),
	).Scan(&n)
	return n, err
}

func (r *attemptsRepo) ListRecentAttempts(ctx context.Context, email string, limit int) ([]domain.LoginAttempt, error) {
	rows, err := r.q.query(ctx, `
		SELECT id, email, kind, success, user_id, user_agent, ip_address, attempted_at
		FROM login_attempts
		WHERE email = ?
		ORDER BY attempted_at DESC, id DESC
		LIMIT ?`, email, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.LoginAttempt
	for rows.Next() {
		var a domain.LoginAttempt
		var kind string
		var userID sql.NullString
		if err := rows.Scan(
			&a.ID,
			&a.Email,
			&kind,
			boolCol{&a.Success},
			&userID,
			&a.UserAgent,
			&a.IPAddress,
			timeCol{&a.AttemptedAt},
		); err != nil {
			return nil, err
		}
		a.Kind = domain.AttemptKind(kind)
		a.UserID = stringPtr(userID)
		out = append(out, a)
	}
	return out, rows.Err()
}
