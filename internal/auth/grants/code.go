package grants

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dropDatabas3/hellodesk/internal/audit"
	"github.com/dropDatabas3/hellodesk/internal/auth/issuance"
	"github.com/dropDatabas3/hellodesk/internal/cache"
	"github.com/dropDatabas3/hellodesk/internal/controlplane"
	"github.com/dropDatabas3/hellodesk/internal/observability/tracing"
	"github.com/dropDatabas3/hellodesk/internal/security/token"
)

const (
	codePrefix     = "code:"
	pkceMethodS256 = "S256"
)

// AuthorizeRequest es la primera pata del flujo code. PrincipalID y TenantID
// salen de la sesión ya autenticada (bearer), nunca del form.
type AuthorizeRequest struct {
	PrincipalID string
	TenantID    string

	ClientID            string
	RedirectURI         string
	Scope               string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
}

type AuthorizeResponse struct {
	Code        string    `json:"code"`
	State       string    `json:"state,omitempty"`
	RedirectURI string    `json:"redirect_uri"`
	ExpiresAt   time.Time `json:"-"`
}

// codePayload es lo que se guarda en cache bajo code:<sha256(code)>.
type codePayload struct {
	PrincipalID   string    `json:"pid"`
	TenantID      string    `json:"tid"`
	ClientID      string    `json:"cid"`
	RedirectURI   string    `json:"redirect_uri"`
	Scopes        []string  `json:"scopes"`
	CodeChallenge string    `json:"code_challenge,omitempty"`
	ExpiresAt     time.Time `json:"exp"`
}

func codeKey(code string) string { return codePrefix + token.Hash(code) }

// Authorize emite un code de un solo uso atado a la sesión actual.
func (s *Service) Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResponse, error) {
	ctx, span := tracing.Tracer().Start(ctx, "grants.authorize", trace.WithAttributes(
		attribute.String("oauth.client_id", req.ClientID),
	))
	defer span.End()

	c, err := s.Clients.Get(req.ClientID)
	if err != nil {
		if errors.Is(err, controlplane.ErrClientNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownClient, req.ClientID)
		}
		return nil, err
	}
	if !c.AllowsGrant(controlplane.GrantAuthorizationCode) {
		return nil, fmt.Errorf("%w: authorization_code for client %s", ErrUnsupportedGrant, c.ClientID)
	}
	if c.TenantID != req.TenantID {
		return nil, fmt.Errorf("%w: tenant mismatch", ErrInvalidRequest)
	}
	if !c.AllowsRedirect(req.RedirectURI) {
		return nil, fmt.Errorf("%w: redirect_uri not registered", ErrInvalidRequest)
	}
	if req.CodeChallenge != "" {
		if req.CodeChallengeMethod != pkceMethodS256 {
			return nil, fmt.Errorf("%w: code_challenge_method must be S256", ErrInvalidRequest)
		}
	} else if c.MustUsePKCE() {
		return nil, fmt.Errorf("%w: code_challenge required", ErrInvalidRequest)
	}

	if _, err := s.activePrincipal(ctx, req.TenantID, req.PrincipalID); err != nil {
		return nil, err
	}

	code, err := token.GenerateOpaque(token.SecretBytes)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	exp := s.now().Add(s.codeTTL())
	payload, err := json.Marshal(codePayload{
		PrincipalID:   req.PrincipalID,
		TenantID:      req.TenantID,
		ClientID:      c.ClientID,
		RedirectURI:   req.RedirectURI,
		Scopes:        issuance.GrantScopes(issuance.ParseScope(req.Scope), c, controlplane.GrantAuthorizationCode, false),
		CodeChallenge: req.CodeChallenge,
		ExpiresAt:     exp,
	})
	if err != nil {
		return nil, fmt.Errorf("encode code: %w", err)
	}
	if err := s.Codes.Set(ctx, codeKey(code), string(payload), s.codeTTL()); err != nil {
		return nil, fmt.Errorf("store code: %w", err)
	}
	return &AuthorizeResponse{Code: code, State: req.State, RedirectURI: req.RedirectURI, ExpiresAt: exp}, nil
}

// exchangeCode es la segunda pata. El code se consume con Take antes de
// cualquier validación: un code presentado con datos incorrectos queda quemado.
func (s *Service) exchangeCode(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	c, err := s.client(req.ClientID, req.ClientSecret, controlplane.GrantAuthorizationCode)
	if err != nil {
		return nil, err
	}
	reject := func(principalID, tenantID, detail string, cause error) (*TokenResponse, error) {
		s.record(ctx, audit.Event{
			TenantID: tenantID, PrincipalID: principalID, ClientID: c.ClientID,
			SourceIP: req.SourceIP, Detail: detail,
		})
		return nil, cause
	}

	if req.Code == "" {
		return reject("", c.TenantID, audit.DetailCodeRejected, ErrInvalidCode)
	}
	raw, err := s.Codes.Take(ctx, codeKey(req.Code))
	if err != nil {
		if cache.IsNotFound(err) {
			return reject("", c.TenantID, audit.DetailCodeRejected, ErrInvalidCode)
		}
		return nil, fmt.Errorf("load code: %w", err)
	}
	var p codePayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode code: %w", err)
	}

	switch {
	case !s.now().Before(p.ExpiresAt):
		return reject(p.PrincipalID, p.TenantID, audit.DetailCodeRejected, fmt.Errorf("%w: expired", ErrInvalidCode))
	case p.ClientID != c.ClientID:
		return reject(p.PrincipalID, p.TenantID, audit.DetailCodeRejected, fmt.Errorf("%w: client mismatch", ErrInvalidCode))
	case p.RedirectURI != req.RedirectURI:
		return reject(p.PrincipalID, p.TenantID, audit.DetailCodeRejected, fmt.Errorf("%w: redirect_uri mismatch", ErrInvalidCode))
	case p.CodeChallenge != "" && (req.CodeVerifier == "" || !token.Equal(token.S256Challenge(req.CodeVerifier), p.CodeChallenge)):
		return reject(p.PrincipalID, p.TenantID, audit.DetailCodeRejected, fmt.Errorf("%w: pkce verification failed", ErrInvalidCode))
	}

	// el principal pudo desactivarse entre Authorize y el canje
	principal, err := s.activePrincipal(ctx, p.TenantID, p.PrincipalID)
	switch {
	case errors.Is(err, ErrAccountInactive):
		return reject(p.PrincipalID, p.TenantID, audit.DetailAccountNotActive, err)
	case errors.Is(err, ErrInvalidCredentials):
		return reject(p.PrincipalID, p.TenantID, audit.DetailInvalidCredential, err)
	case err != nil:
		return nil, err
	}

	resp, err := s.issueFor(ctx, principal, c, controlplane.GrantAuthorizationCode, p.Scopes, true, "")
	if err != nil {
		return nil, err
	}
	s.record(ctx, audit.Event{
		TenantID: p.TenantID, PrincipalID: p.PrincipalID, ClientID: c.ClientID,
		SourceIP: req.SourceIP, Detail: audit.DetailCodeExchanged,
	})
	return resp, nil
}
