package grants

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/hellodesk/internal/audit"
	"github.com/dropDatabas3/hellodesk/internal/controlplane"
	"github.com/dropDatabas3/hellodesk/internal/observability/logger"
)

// RevokeRequest: form de /oauth2/revoke.
type RevokeRequest struct {
	ClientID     string
	ClientSecret string
	Token        string
}

// Revoke invalida un refresh token del client. Un token desconocido o de
// otro client no es error (RFC 7009 §2.2).
func (s *Service) Revoke(ctx context.Context, req RevokeRequest) error {
	c, err := s.Clients.Authenticate(req.ClientID, req.ClientSecret)
	if err != nil {
		if errors.Is(err, controlplane.ErrClientNotFound) || errors.Is(err, controlplane.ErrBadSecret) {
			return fmt.Errorf("%w: %s", ErrUnknownClient, req.ClientID)
		}
		return err
	}
	if req.Token == "" {
		return nil
	}
	err = s.Refresh.RevokeSecret(ctx, req.Token, c.ClientID)
	if errors.Is(err, ErrTokenNotFound) {
		logger.Scoped(ctx, "service", "grants", "revoke").Debug("revoke of unknown token ignored", logger.ClientID(c.ClientID))
		return nil
	}
	return err
}

// LogoutAll revoca todos los refresh tokens del principal.
func (s *Service) LogoutAll(ctx context.Context, tenantID, principalID, clientID, sourceIP string) (int, error) {
	n, err := s.Refresh.Revoke(ctx, principalID)
	if err != nil {
		return 0, err
	}
	s.record(ctx, audit.Event{
		TenantID: tenantID, PrincipalID: principalID, ClientID: clientID,
		SourceIP: sourceIP, Detail: audit.DetailLogoutAll,
	})
	return n, nil
}
