package pg

import (
	"context"
	"database/sql"

	"github.com/dropDatabas3/hellodesk/internal/domain/repository"
)

type rbacRepo Store

func (r *rbacRepo) PrincipalRoles(ctx context.Context, tenantID, principalID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT role_name FROM principal_role WHERE tenant_id = $1 AND principal_id = $2 ORDER BY role_name`,
		tenantID, principalID)
	if err != nil {
		return nil, mapErr("principal roles", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, mapErr("principal roles", err)
		}
		out = append(out, name)
	}
	return out, mapErr("principal roles", rows.Err())
}

// RolePermissions: el LEFT JOIN distingue "rol sin permisos" (una fila con
// NULL) de "rol inexistente" (cero filas).
func (r *rbacRepo) RolePermissions(ctx context.Context, tenantID, role string) ([]repository.Permission, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT rc.claim_value
		FROM role ro
		LEFT JOIN role_claim rc
		  ON rc.tenant_id = ro.tenant_id AND rc.role_name = ro.name AND rc.claim_kind = $3
		WHERE ro.tenant_id = $1 AND ro.name = $2
		ORDER BY rc.claim_value`,
		tenantID, role, repository.ClaimPermission)
	if err != nil {
		return nil, mapErr("role permissions", err)
	}
	defer rows.Close()

	found := false
	out := []repository.Permission{}
	for rows.Next() {
		found = true
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, mapErr("role permissions", err)
		}
		if v.Valid {
			out = append(out, repository.Permission{Name: v.String})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("role permissions", err)
	}
	if !found {
		return nil, repository.ErrNotFound
	}
	return out, nil
}
