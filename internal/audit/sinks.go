package audit

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/dropDatabas3/hellodesk/internal/domain/repository"
	"github.com/dropDatabas3/hellodesk/internal/observability/logger"
)

// LogSink escribe cada evento como una línea estructurada.
type LogSink struct {
	L *zap.Logger
}

func (s LogSink) RecordEvent(ctx context.Context, ev Event) error {
	l := s.L
	if l == nil {
		l = logger.From(ctx)
	}
	l.Info("audit",
		logger.String("audit_id", ev.ID),
		logger.String("kind", string(ev.Kind)),
		logger.TenantID(ev.TenantID),
		logger.PrincipalID(ev.PrincipalID),
		logger.ClientID(ev.ClientID),
		logger.ClientIP(ev.SourceIP),
		logger.String("detail", ev.Detail),
	)
	return nil
}

// StoreSink persiste en el AuditRepository (tabla audit_log).
type StoreSink struct {
	Repo repository.AuditRepository
}

func (s StoreSink) RecordEvent(ctx context.Context, ev Event) error {
	return s.Repo.Insert(ctx, repository.AuditRecord{
		ID:          ev.ID,
		Kind:        string(ev.Kind),
		TenantID:    ev.TenantID,
		PrincipalID: ev.PrincipalID,
		ClientID:    ev.ClientID,
		SourceIP:    ev.SourceIP,
		Detail:      ev.Detail,
		CreatedAt:   ev.At,
	})
}

// Multi reparte a varios sinks; sigue aunque alguno falle.
type Multi []Sink

func (m Multi) RecordEvent(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range m {
		if err := s.RecordEvent(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
