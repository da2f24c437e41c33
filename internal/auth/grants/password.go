package grants

import (
	"context"
	"errors"

	"github.com/dropDatabas3/hellodesk/internal/audit"
	"github.com/dropDatabas3/hellodesk/internal/auth/credentials"
	"github.com/dropDatabas3/hellodesk/internal/auth/issuance"
	"github.com/dropDatabas3/hellodesk/internal/controlplane"
	"github.com/dropDatabas3/hellodesk/internal/observability/logger"
	"github.com/dropDatabas3/hellodesk/internal/util"
)

// password: el tenant es el del client; el form nunca lo elige.
func (s *Service) password(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	c, err := s.client(req.ClientID, req.ClientSecret, controlplane.GrantPassword)
	if err != nil {
		return nil, err
	}

	p, err := s.Verifier.Verify(ctx, c.TenantID, req.Username, req.Password)
	if err != nil {
		var denied *credentials.Denied
		if !errors.As(err, &denied) {
			return nil, err
		}
		ev := audit.Event{TenantID: c.TenantID, ClientID: c.ClientID, SourceIP: req.SourceIP, Detail: audit.DetailInvalidCredential}
		if denied.Principal != nil {
			ev.PrincipalID = denied.Principal.ID
		}
		if errors.Is(err, ErrAccountInactive) {
			ev.Detail = audit.DetailAccountNotActive
		}
		logger.Scoped(ctx, "service", "grants", "password").Debug("credentials rejected",
			logger.String("login", util.MaskLogin(req.Username)), logger.Reason(ev.Detail))
		s.record(ctx, ev)
		return nil, err
	}

	s.record(ctx, audit.Event{
		TenantID: c.TenantID, PrincipalID: p.ID, ClientID: c.ClientID,
		SourceIP: req.SourceIP, Detail: audit.DetailLoginSuccess,
	})
	return s.issueFor(ctx, p, c, controlplane.GrantPassword, issuance.ParseScope(req.Scope), false, "")
}
