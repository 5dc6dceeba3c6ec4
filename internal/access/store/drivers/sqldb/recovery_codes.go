package sqldb

import (
	"context"
	"time"
)

type recoveryCodesRepo struct {
	q *queries
}

func (r *recoveryCodesRepo) CreateRecoveryCode(ctx context.Context, userID, codeHash string, at time.Time) error {
	_, err := r.q.exec(ctx,
		`INSERT INTO recovery_codes (user_id, code_hash, created_at) VALUES (?, ?, ?)`,
		userID, codeHash, r.q.ts(at))
	return r.q.uniqueErr(err)
}

func (r *recoveryCodesRepo) ConsumeRecoveryCode(ctx context.Context, userID, codeHash string) (bool, error) {
	res, err := r.q.exec(ctx,
		`DELETE FROM recovery_codes WHERE user_id = ? AND code_hash = ?`, userID, codeHash)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *recoveryCodesRepo) DeleteAllRecoveryCodes(ctx context.Context, userID string) error {
	_, err := r.q.exec(ctx, `DELETE FROM recovery_codes WHERE user_id = ?`, userID)
	return err
}

func (r *recoveryCodesRepo) CountRecoveryCodes(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.q.queryRow(ctx, `SELECT COUNT(*) FROM recovery_codes WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}
