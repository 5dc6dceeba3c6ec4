package sqldb

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
)

type usersRepo struct {
	q *queries
}

const userColumns = `id, company_id, email, display_name, password_hash, role, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	var role string
	err := row.Scan(
		&u.ID,
		&u.CompanyID,
		&u.Email,
		&u.DisplayName,
		&u.PasswordHash,
		&role,
		timeCol{&u.CreatedAt},
		timeCol{&u.UpdatedAt},
	)
	u.Role = domain.Role(role)
	return u, err
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	u, err := scanUser(r.q.queryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	return u, mapNotFound(err)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := scanUser(r.q.queryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	return u, mapNotFound(err)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.q.exec(ctx, `
		INSERT INTO users (id, company_id, email, display_name, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		u.CompanyID,
		u.Email,
		u.DisplayName,
		u.PasswordHash,
		string(u.Role),
		r.q.ts(u.CreatedAt),
		r.q.ts(u.UpdatedAt),
	)
	return r.q.uniqueErr(err)
}

func (r *usersRepo) ListAdmins(ctx context.Context, companyID string) ([]domain.User, error) {
	rows, err := r.q.query(ctx,
		`SELECT `+userColumns+` FROM users WHERE company_id = ? AND role = ? ORDER BY email`,
		companyID, string(domain.RoleAdmin))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *usersRepo) CountUsersByCompany(ctx context.Context, companyID string) (int, error) {
	var n int
	err := r.q.queryRow(ctx, `SELECT COUNT(*) FROM users WHERE company_id = ?`, companyID).Scan(&n)
	return n, err
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var id string
	err := r.q.queryRow(ctx, `SELECT id FROM users LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return true, nil
	}
	return false, err
}
