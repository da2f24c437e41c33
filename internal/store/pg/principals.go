package pg

import (
	"context"

	"github.com/dropDatabas3/hellodesk/internal/domain/repository"
)

type principalRepo Store

const principalColumns = `id, tenant_id, login, password_hash, active, profile, display_name, email, created_at, deleted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrincipal(row rowScanner) (*repository.Principal, error) {
	var p repository.Principal
	err := row.Scan(&p.ID, &p.TenantID, &p.Login, &p.PasswordHash, &p.Active,
		&p.Profile, &p.DisplayName, &p.Email, &p.CreatedAt, &p.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *principalRepo) GetByLogin(ctx context.Context, tenantID, login string) (*repository.Principal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+principalColumns+` FROM principal WHERE tenant_id = $1 AND login = $2`,
		tenantID, repository.NormalizeLogin(login))
	p, err := scanPrincipal(row)
	if err != nil {
		return nil, mapErr("get principal by login", err)
	}
	return p, nil
}

func (r *principalRepo) GetByID(ctx context.Context, tenantID, principalID string) (*repository.Principal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+principalColumns+` FROM principal WHERE tenant_id = $1 AND id = $2`,
		tenantID, principalID)
	p, err := scanPrincipal(row)
	if err != nil {
		return nil, mapErr("get principal", err)
	}
	return p, nil
}

func (r *principalRepo) SetActive(ctx context.Context, tenantID, principalID string, flag repository.ActiveFlag) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE principal SET active = $3 WHERE tenant_id = $1 AND id = $2`,
		tenantID, principalID, flag)
	if err != nil {
		return mapErr("set principal active", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr("set principal active", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
