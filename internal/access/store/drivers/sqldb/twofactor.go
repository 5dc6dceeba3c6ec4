package sqldb

import (
	"context"
	"time"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
)

type twoFactorRepo struct {
	q *queries
}

func (r *twoFactorRepo) GetCredential(ctx context.Context, userID string) (domain.TwoFactorCredential, error) {
	var c domain.TwoFactorCredential
	var enabledAt *time.Time
	err := r.q.queryRow(ctx, `
		SELECT user_id, sealed_secret, enabled, enabled_at, updated_at
		FROM two_factor_credentials WHERE user_id = ?`, userID,
	).Scan(
		&c.UserID,
		&c.SealedSecret,
		boolCol{&c.Enabled},
		nullTimeCol{&enabledAt},
		timeCol{&c.UpdatedAt},
	)
	if enabledAt != nil {
		c.EnabledAt = *enabledAt
	}
	return c, mapNotFound(err)
}

func (r *twoFactorRepo) UpsertCredential(ctx context.Context, c domain.TwoFactorCredential) error {
	var enabledAt *time.Time
	if !c.EnabledAt.IsZero() {
		enabledAt = &c.EnabledAt
	}
	_, err := r.q.exec(ctx, `
		INSERT INTO two_factor_credentials (user_id, sealed_secret, enabled, enabled_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			sealed_secret = excluded.sealed_secret,
			enabled = excluded.enabled,
			enabled_at = excluded.enabled_at,
			updated_at = excluded.updated_at`,
		c.UserID, c.SealedSecret, c.Enabled, r.q.nullTS(enabledAt), r.q.ts(c.UpdatedAt),
	)
	return err
}

func (r *twoFactorRepo) DeleteCredential(ctx context.Context, userID string) error {
	_, err := r.q.exec(ctx, `DELETE FROM two_factor_credentials WHERE user_id = ?`, userID)
	return err
}
