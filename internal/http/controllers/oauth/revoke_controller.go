package oauth

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/hellodesk/internal/auth/grants"
	"github.com/dropDatabas3/hellodesk/internal/http/errors"
	mw "github.com/dropDatabas3/hellodesk/internal/http/middlewares"
	"github.com/dropDatabas3/hellodesk/internal/observability/logger"
)

// RevokeController maneja POST /oauth2/revoke y POST /oauth2/logout-all.
type RevokeController struct {
	service Service
}

func NewRevokeController(s Service) *RevokeController {
	return &RevokeController{service: s}
}

// Revoke responde 200 aunque el token no exista (RFC 7009).
func (c *RevokeController) Revoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		errors.WriteOAuthError(w, grants.PublicError(grants.ErrInvalidRequest))
		return
	}
	clientID, secret, _ := clientCredentials(r)
	err := c.service.Revoke(ctx, grants.RevokeRequest{
		ClientID:     clientID,
		ClientSecret: secret,
		Token:        strings.TrimSpace(r.PostForm.Get("token")),
	})
	if err != nil {
		p := grants.PublicError(err)
		if p.Status >= http.StatusInternalServerError {
			logger.From(ctx).Error("revoke failed", logger.Op("RevokeController.Revoke"), logger.Err(err))
		}
		errors.WriteOAuthError(w, p)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
}

// LogoutAll revoca todos los refresh tokens del usuario del bearer.
func (c *RevokeController) LogoutAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := mw.GetClaims(ctx)
	if claims == nil {
		errors.WriteError(w, errors.ErrTokenMissing)
		return
	}
	n, err := c.service.LogoutAll(ctx,
		mw.ClaimString(claims, "tid"),
		mw.ClaimString(claims, "sub"),
		mw.ClaimString(claims, "client_id"),
		mw.ClientIP(r),
	)
	if err != nil {
		logger.From(ctx).Error("logout-all failed", logger.Op("RevokeController.LogoutAll"), logger.Err(err))
		errors.WriteError(w, errors.ErrInternalServerError)
		return
	}
	logger.From(ctx).Info("logout-all", logger.Count(n))
	w.WriteHeader(http.StatusNoContent)
}
