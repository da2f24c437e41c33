package grants

import (
	"context"
	"errors"

	"github.com/dropDatabas3/hellodesk/internal/audit"
	"github.com/dropDatabas3/hellodesk/internal/controlplane"
	"github.com/dropDatabas3/hellodesk/internal/observability/logger"
)

// refresh rota el token presentado. Hacia afuera cualquier rechazo es el
// mismo invalid_grant; el detalle queda en log y auditoría.
func (s *Service) refresh(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	log := logger.Scoped(ctx, "service", "grants", "refresh")

	c, err := s.client(req.ClientID, req.ClientSecret, controlplane.GrantRefreshToken)
	if err != nil {
		return nil, err
	}

	red, err := s.Refresh.Redeem(ctx, req.RefreshToken, c.ClientID)
	if err != nil {
		if !IsDenial(err) {
			return nil, err
		}
		ev := audit.Event{TenantID: c.TenantID, ClientID: c.ClientID, SourceIP: req.SourceIP, Detail: audit.DetailRefreshRejected}
		if errors.Is(err, ErrTokenReused) {
			ev.Detail = audit.DetailRefreshReused
			if red != nil && red.Consumed != nil {
				ev.PrincipalID = red.PrincipalID()
				ev.TenantID = red.TenantID()
			}
			s.Metrics.RefreshReuse()
		}
		s.record(ctx, ev)
		return nil, err
	}

	// lectura fresca: una desactivación corta la cadena de refresh
	p, err := s.activePrincipal(ctx, red.TenantID(), red.PrincipalID())
	if err != nil {
		if rerr := s.Refresh.RevokeHash(ctx, red.Successor.TokenHash, ""); rerr != nil {
			log.Error("revoke successor failed", logger.TokenID(red.Successor.ID), logger.Err(rerr))
		}
		if IsDenial(err) {
			detail := audit.DetailInvalidCredential
			if errors.Is(err, ErrAccountInactive) {
				detail = audit.DetailAccountNotActive
			}
			s.record(ctx, audit.Event{
				TenantID: red.TenantID(), PrincipalID: red.PrincipalID(), ClientID: c.ClientID,
				SourceIP: req.SourceIP, Detail: detail,
			})
		}
		return nil, err
	}

	resp, err := s.issueFor(ctx, p, c, controlplane.GrantRefreshToken, red.Successor.Scopes, true, red.Secret)
	if err != nil {
		return nil, err
	}
	s.record(ctx, audit.Event{
		TenantID: red.TenantID(), PrincipalID: p.ID, ClientID: c.ClientID,
		SourceIP: req.SourceIP, Detail: audit.DetailRefreshSuccess,
	})
	return resp, nil
}
