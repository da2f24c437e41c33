// Package issuance emite access tokens (JWT), identity tokens y, cuando el
// grant lo permite, refresh tokens.
package issuance

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dropDatabas3/hellodesk/internal/auth/claims"
	"github.com/dropDatabas3/hellodesk/internal/auth/refresh"
	"github.com/dropDatabas3/hellodesk/internal/controlplane"
	"github.com/dropDatabas3/hellodesk/internal/jwt"
)

const defaultAccessTTL = 15 * time.Minute

// Issuer arma y firma los tokens de una emisión.
type Issuer struct {
	JWT     *jwt.Issuer
	Refresh *refresh.Rotator
	// AccessTTL es fijo y viaja dentro del token; no hay estado server-side.
	AccessTTL time.Duration
	Now       func() time.Time
}

func New(j *jwt.Issuer, r *refresh.Rotator, accessTTL time.Duration) *Issuer {
	return &Issuer{JWT: j, Refresh: r, AccessTTL: accessTTL, Now: time.Now}
}

// Request es la entrada de Issue.
type Request struct {
	Claims          claims.Set
	Client          *controlplane.Client
	Grant           controlplane.GrantType
	RequestedScopes []string
	// RestoreScopes: los scopes vienen de una emisión previa (code, refresh).
	RestoreScopes bool
	// RotatedSecret: en el grant refresh, el secreto del sucesor ya persistido.
	RotatedSecret string
}

// Tokens es el resultado. RefreshToken e IDToken pueden venir vacíos.
type Tokens struct {
	AccessToken  string
	TokenType    string
	ExpiresIn    int
	ExpiresAt    time.Time
	RefreshToken string
	IDToken      string
	Scopes       []string
}

func (i *Issuer) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}

// Issue emite los tokens para un claim set ya armado.
func (i *Issuer) Issue(ctx context.Context, req Request) (*Tokens, error) {
	if req.Client == nil {
		return nil, errors.New("issuance: nil client")
	}
	ttl := i.AccessTTL
	if ttl <= 0 {
		ttl = defaultAccessTTL
	}
	now := i.now()
	granted := GrantScopes(req.RequestedScopes, req.Client, req.Grant, req.RestoreScopes)

	at, exp, err := i.JWT.Sign(req.Claims.Subject, req.Client.ClientID, now, ttl,
		accessClaims(req.Claims, req.Client, req.Grant, granted))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	out := &Tokens{
		AccessToken: at,
		TokenType:   "Bearer",
		ExpiresIn:   int(ttl.Seconds()),
		ExpiresAt:   exp,
		Scopes:      granted,
	}

	if slices.Contains(granted, ScopeOpenID) {
		idt, _, err := i.JWT.Sign(req.Claims.Subject, req.Client.ClientID, now, ttl, identityClaims(req.Claims, granted))
		if err != nil {
			return nil, fmt.Errorf("sign id token: %w", err)
		}
		out.IDToken = idt
	}

	switch {
	case req.Grant == controlplane.GrantRefreshToken:
		out.RefreshToken = req.RotatedSecret
	case MintsRefresh(req.Grant):
		secret, _, err := i.Refresh.Mint(ctx, refresh.MintInput{
			PrincipalID: req.Claims.Subject,
			TenantID:    req.Claims.TenantID,
			ClientID:    req.Client.ClientID,
			Scopes:      granted,
		})
		if err != nil {
			return nil, err
		}
		out.RefreshToken = secret
	}
	return out, nil
}
