// Package grants orquesta los flujos OAuth2 del token endpoint:
// authorization_code (con PKCE), password, refresh_token y client_credentials.
//
// Cada grant sigue el mismo esquema: resolver el client, verificar la
// credencial del grant, releer el principal, armar claims, emitir y auditar.
package grants

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dropDatabas3/hellodesk/internal/audit"
	"github.com/dropDatabas3/hellodesk/internal/auth/claims"
	"github.com/dropDatabas3/hellodesk/internal/auth/credentials"
	"github.com/dropDatabas3/hellodesk/internal/auth/issuance"
	"github.com/dropDatabas3/hellodesk/internal/auth/refresh"
	"github.com/dropDatabas3/hellodesk/internal/cache"
	"github.com/dropDatabas3/hellodesk/internal/controlplane"
	"github.com/dropDatabas3/hellodesk/internal/domain/repository"
	"github.com/dropDatabas3/hellodesk/internal/metrics"
	"github.com/dropDatabas3/hellodesk/internal/observability/logger"
	"github.com/dropDatabas3/hellodesk/internal/observability/tracing"
)

const defaultCodeTTL = 5 * time.Minute

// Clients resuelve y autentica clientes OAuth.
type Clients interface {
	Get(clientID string) (*controlplane.Client, error)
	Authenticate(clientID, secret string) (*controlplane.Client, error)
}

// Service es el punto de entrada de los grants.
type Service struct {
	Clients    Clients
	Verifier   *credentials.Verifier
	Principals repository.PrincipalRepository
	Claims     *claims.Assembler
	Issuer     *issuance.Issuer
	Refresh    *refresh.Rotator
	Codes      cache.Client
	Audit      audit.Sink
	Metrics    *metrics.Metrics // opcional

	CodeTTL time.Duration
	Now     func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) codeTTL() time.Duration {
	if s.CodeTTL > 0 {
		return s.CodeTTL
	}
	return defaultCodeTTL
}

// TokenRequest son los campos del form de /oauth2/token.
type TokenRequest struct {
	GrantType    string
	ClientID     string
	ClientSecret string
	Scope        string

	Code         string
	RedirectURI  string
	CodeVerifier string

	Username string
	Password string

	RefreshToken string

	// SourceIP solo se usa para auditoría.
	SourceIP string
}

// TokenResponse es el cuerpo JSON de éxito.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

func toResponse(t *issuance.Tokens) *TokenResponse {
	return &TokenResponse{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		ExpiresIn:    t.ExpiresIn,
		RefreshToken: t.RefreshToken,
		IDToken:      t.IDToken,
		Scope:        issuance.FormatScope(t.Scopes),
	}
}

// Exchange despacha por grant_type.
func (s *Service) Exchange(ctx context.Context, req TokenRequest) (resp *TokenResponse, err error) {
	grant := controlplane.GrantType(req.GrantType)

	ctx, span := tracing.Tracer().Start(ctx, "grants.exchange", trace.WithAttributes(
		attribute.String("oauth.grant_type", req.GrantType),
		attribute.String("oauth.client_id", req.ClientID),
	))
	defer func() {
		s.observe(ctx, span, grant, err)
		span.End()
	}()

	switch grant {
	case controlplane.GrantAuthorizationCode:
		return s.exchangeCode(ctx, req)
	case controlplane.GrantPassword:
		return s.password(ctx, req)
	case controlplane.GrantRefreshToken:
		return s.refresh(ctx, req)
	case controlplane.GrantClientCredentials:
		return s.clientCredentials(ctx, req)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedGrant, req.GrantType)
	}
}

// observe registra resultado en span, métricas y log.
func (s *Service) observe(ctx context.Context, span trace.Span, grant controlplane.GrantType, err error) {
	log := logger.Scoped(ctx, "service", "grants", "exchange").With(logger.Grant(string(grant)))
	label := string(grant)
	switch grant {
	case controlplane.GrantAuthorizationCode, controlplane.GrantPassword,
		controlplane.GrantRefreshToken, controlplane.GrantClientCredentials:
	default:
		label = "unknown"
	}
	switch {
	case err == nil:
		s.Metrics.Grant(label, metrics.ResultOK)
		span.SetStatus(codes.Ok, "")
	case IsDenial(err):
		s.Metrics.Grant(label, metrics.ResultDenied)
		span.SetAttributes(attribute.String("oauth.denial", err.Error()))
		log.Info("grant denied", logger.Reason(err.Error()))
	default:
		s.Metrics.Grant(label, metrics.ResultError)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("grant failed", logger.Err(err))
	}
}

// client autentica al client y chequea que tenga el grant habilitado.
func (s *Service) client(clientID, secret string, grant controlplane.GrantType) (*controlplane.Client, error) {
	c, err := s.Clients.Authenticate(clientID, secret)
	if err != nil {
		if errors.Is(err, controlplane.ErrClientNotFound) || errors.Is(err, controlplane.ErrBadSecret) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownClient, clientID)
		}
		return nil, err
	}
	if !c.AllowsGrant(grant) {
		return nil, fmt.Errorf("%w: %s for client %s", ErrUnsupportedGrant, grant, clientID)
	}
	return c, nil
}

// activePrincipal relee el principal: inexistente => ErrInvalidCredentials,
// no activo o borrado => ErrAccountInactive.
func (s *Service) activePrincipal(ctx context.Context, tenantID, principalID string) (*repository.Principal, error) {
	p, err := s.Principals.GetByID(ctx, tenantID, principalID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load principal: %w", err)
	}
	if !p.CanAuthenticate() {
		return p, ErrAccountInactive
	}
	return p, nil
}

// issueFor arma claims del principal y emite.
func (s *Service) issueFor(ctx context.Context, p *repository.Principal, c *controlplane.Client, grant controlplane.GrantType, scopes []string, restore bool, rotated string) (*TokenResponse, error) {
	set, err := s.Claims.Assemble(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("assemble claims: %w", err)
	}
	toks, err := s.Issuer.Issue(ctx, issuance.Request{
		Claims:          set,
		Client:          c,
		Grant:           grant,
		RequestedScopes: scopes,
		RestoreScopes:   restore,
		RotatedSecret:   rotated,
	})
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	return toResponse(toks), nil
}

// record audita. Nunca falla el grant: un error del sink se loguea.
func (s *Service) record(ctx context.Context, ev audit.Event) {
	if s.Audit == nil {
		return
	}
	ev.Kind = audit.Login
	if ev.At.IsZero() {
		ev.At = s.now()
	}
	if err := s.Audit.RecordEvent(ctx, ev); err != nil {
		logger.From(ctx).Warn("audit record failed", logger.String("detail", ev.Detail), logger.Err(err))
	}
}
