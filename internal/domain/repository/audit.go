package repository

import (
	"context"
	"time"
)

// AuditRecord es una fila del log de auditoría.
type AuditRecord struct {
	ID          string
	Kind        string
	TenantID    string
	PrincipalID string
	ClientID    string
	SourceIP    string
	Detail      string
	CreatedAt   time.Time
}

type AuditRepository interface {
	Insert(ctx context.Context, rec AuditRecord) error
}
