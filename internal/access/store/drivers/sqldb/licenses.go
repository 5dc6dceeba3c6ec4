package sqldb

import (
	"context"
	"strings"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
)

type licensesRepo struct {
	q *queries
}

// Features are stored as one space separated column, the same way scopes
// travel in tokens.
func (r *licensesRepo) GetLicenseByCompany(ctx context.Context, companyID string) (domain.License, error) {
	var l domain.License
	var features string
	err := r.q.queryRow(ctx, `
		SELECT id, company_id, license_key, license_type, max_users, valid_from, valid_until,
		       is_active, features, created_at, updated_at
		FROM licenses WHERE company_id = ?`, companyID,
	).Scan(
		&l.ID,
		&l.CompanyID,
		&l.Key,
		&l.Type,
		&l.MaxUsers,
		timeCol{&l.ValidFrom},
		timeCol{&l.ValidUntil},
		boolCol{&l.IsActive},
		&features,
		timeCol{&l.CreatedAt},
		timeCol{&l.UpdatedAt},
	)
	if err != nil {
		return domain.License{}, mapNotFound(err)
	}
	l.Features = strings.Fields(features)
	return l, nil
}

func (r *licensesRepo) UpsertLicense(ctx context.Context, l domain.License) error {
	_, err := r.q.exec(ctx, `
		INSERT INTO licenses (id, company_id, license_key, license_type, max_users, valid_from,
		                      valid_until, is_active, features, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (company_id) DO UPDATE SET
			license_key = excluded.license_key,
			license_type = excluded.license_type,
			max_users = excluded.max_users,
			valid_from = excluded.valid_from,
			valid_until = excluded.valid_until,
			is_active = excluded.is_active,
			features = excluded.features,
			updated_at = excluded.updated_at`,
		l.ID,
		l.CompanyID,
		l.Key,
		l.Type,
		l.MaxUsers,
		r.q.ts(l.ValidFrom),
		r.q.ts(l.ValidUntil),
		l.IsActive,
		strings.Join(l.Features, " "),
		r.q.ts(l.CreatedAt),
		r.q.ts(l.UpdatedAt),
	)
	return r.q.uniqueErr(err)
}
