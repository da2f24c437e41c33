// Package oauth contiene los controllers de /oauth2/*.
// Son finos: parsean el form, llaman a grants.Service y mapean el error.
package oauth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/dropDatabas3/hellodesk/internal/auth/grants"
	"github.com/dropDatabas3/hellodesk/internal/http/errors"
	mw "github.com/dropDatabas3/hellodesk/internal/http/middlewares"
	"github.com/dropDatabas3/hellodesk/internal/observability/logger"
)

// Service es lo que los controllers necesitan de grants.Service.
type Service interface {
	Exchange(ctx context.Context, req grants.TokenRequest) (*grants.TokenResponse, error)
	Authorize(ctx context.Context, req grants.AuthorizeRequest) (*grants.AuthorizeResponse, error)
	Revoke(ctx context.Context, req grants.RevokeRequest) error
	LogoutAll(ctx context.Context, tenantID, principalID, clientID, sourceIP string) (int, error)
}

// TokenController maneja POST /oauth2/token.
type TokenController struct {
	service Service
}

func NewTokenController(s Service) *TokenController {
	return &TokenController{service: s}
}

// clientCredentials: client_secret_basic tiene prioridad sobre el form (RFC 6749 §2.3.1).
func clientCredentials(r *http.Request) (id, secret string, basic bool) {
	if u, p, ok := r.BasicAuth(); ok {
		uid, err1 := url.QueryUnescape(u)
		psec, err2 := url.QueryUnescape(p)
		if err1 == nil && err2 == nil {
			return uid, psec, true
		}
		return u, p, true
	}
	return strings.TrimSpace(r.PostFormValue("client_id")), r.PostFormValue("client_secret"), false
}

func (c *TokenController) Token(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("TokenController.Token"))

	if err := r.ParseForm(); err != nil {
		errors.WriteOAuthError(w, grants.PublicError(grants.ErrInvalidRequest))
		return
	}
	clientID, secret, basic := clientCredentials(r)
	f := r.PostForm

	resp, err := c.service.Exchange(ctx, grants.TokenRequest{
		GrantType:    strings.TrimSpace(f.Get("grant_type")),
		ClientID:     clientID,
		ClientSecret: secret,
		Scope:        f.Get("scope"),
		Code:         f.Get("code"),
		RedirectURI:  f.Get("redirect_uri"),
		CodeVerifier: f.Get("code_verifier"),
		Username:     f.Get("username"),
		Password:     f.Get("password"),
		RefreshToken: f.Get("refresh_token"),
		SourceIP:     mw.ClientIP(r),
	})
	if err != nil {
		p := grants.PublicError(err)
		if p.Status >= http.StatusInternalServerError {
			log.Error("token exchange failed", logger.Err(err))
		}
		if p.Status == http.StatusUnauthorized && basic {
			w.Header().Set("WWW-Authenticate", `Basic realm="oauth2"`)
		}
		errors.WriteOAuthError(w, p)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	errors.WriteJSON(w, http.StatusOK, resp)
}
