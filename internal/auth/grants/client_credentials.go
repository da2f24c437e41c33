package grants

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/hellodesk/internal/audit"
	"github.com/dropDatabas3/hellodesk/internal/auth/claims"
	"github.com/dropDatabas3/hellodesk/internal/auth/issuance"
	"github.com/dropDatabas3/hellodesk/internal/controlplane"
)

// clientCredentials: el client actúa por sí mismo. Sin principal, sin
// roles y sin refresh token.
func (s *Service) clientCredentials(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	c, err := s.client(req.ClientID, req.ClientSecret, controlplane.GrantClientCredentials)
	if err != nil {
		return nil, err
	}
	if c.IsPublic() {
		return nil, fmt.Errorf("%w: public client", ErrUnknownClient)
	}

	toks, err := s.Issuer.Issue(ctx, issuance.Request{
		Claims:          claims.Set{Subject: c.ClientID, TenantID: c.TenantID},
		Client:          c,
		Grant:           controlplane.GrantClientCredentials,
		RequestedScopes: issuance.ParseScope(req.Scope),
	})
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	s.record(ctx, audit.Event{TenantID: c.TenantID, ClientID: c.ClientID, SourceIP: req.SourceIP, Detail: audit.DetailClientCredentials})
	return toResponse(toks), nil
}
