package oauth

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/hellodesk/internal/auth/grants"
	"github.com/dropDatabas3/hellodesk/internal/http/errors"
	mw "github.com/dropDatabas3/hellodesk/internal/http/middlewares"
	"github.com/dropDatabas3/hellodesk/internal/observability/logger"
)

// AuthorizeController maneja POST /oauth2/authorize (requiere bearer).
// Devuelve el code en JSON; la UI se encarga del redirect.
type AuthorizeController struct {
	service Service
}

func NewAuthorizeController(s Service) *AuthorizeController {
	return &AuthorizeController{service: s}
}

func (c *AuthorizeController) Authorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := mw.GetClaims(ctx)
	if claims == nil {
		errors.WriteError(w, errors.ErrTokenMissing)
		return
	}
	if err := r.ParseForm(); err != nil {
		errors.WriteOAuthError(w, grants.PublicError(grants.ErrInvalidRequest))
		return
	}
	f := r.PostForm
	resp, err := c.service.Authorize(ctx, grants.AuthorizeRequest{
		PrincipalID:         mw.ClaimString(claims, "sub"),
		TenantID:            mw.ClaimString(claims, "tid"),
		ClientID:            strings.TrimSpace(f.Get("client_id")),
		RedirectURI:         f.Get("redirect_uri"),
		Scope:               f.Get("scope"),
		State:               f.Get("state"),
		CodeChallenge:       f.Get("code_challenge"),
		CodeChallengeMethod: f.Get("code_challenge_method"),
	})
	if err != nil {
		p := grants.PublicError(err)
		if p.Status >= http.StatusInternalServerError {
			logger.From(ctx).Error("authorize failed", logger.Op("AuthorizeController.Authorize"), logger.Err(err))
		}
		errors.WriteOAuthError(w, p)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	errors.WriteJSON(w, http.StatusOK, resp)
}
