package pg

import (
	"context"

	"github.com/dropDatabas3/hellodesk/internal/domain/repository"
)

type auditRepo Store

func (r *auditRepo) Insert(ctx context.Context, rec repository.AuditRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, kind, tenant_id, principal_id, client_id, source_ip, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.Kind, rec.TenantID, rec.PrincipalID, rec.ClientID, rec.SourceIP, rec.Detail, rec.CreatedAt)
	return mapErr("insert audit", err)
}
