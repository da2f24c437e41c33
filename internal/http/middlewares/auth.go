package middlewares

import (
	"net/http"
	"strings"

	authclaims "github.com/dropDatabas3/hellodesk/internal/auth/claims"
	"github.com/dropDatabas3/hellodesk/internal/http/errors"
	"github.com/dropDatabas3/hellodesk/internal/jwt"
	"github.com/dropDatabas3/hellodesk/internal/observability/logger"
)

// RequireAuth valida Authorization: Bearer <JWT> y guarda las claims en el contexto.
// Solo access tokens de usuario: identity tokens y tokens de client_credentials se rechazan.
func RequireAuth(issuer *jwt.Issuer) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := strings.TrimSpace(r.Header.Get("Authorization"))
			if len(ah) < 7 || !strings.EqualFold(ah[:7], "bearer ") {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				errors.WriteError(w, errors.ErrTokenMissing)
				return
			}
			claims, err := issuer.Parse(strings.TrimSpace(ah[7:]))
			if err != nil {
				logger.From(r.Context()).Debug("bearer rejected", logger.Err(err))
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				errors.WriteError(w, errors.ErrTokenInvalid)
				return
			}
			if ClaimString(claims, authclaims.TokenUse) != authclaims.UseAccess {
				logger.From(r.Context()).Debug("bearer rejected: not an access token")
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				errors.WriteError(w, errors.ErrTokenInvalid)
				return
			}
			if ClaimString(claims, "sub") == "" || ClaimString(claims, "grant") == "client_credentials" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="insufficient_scope"`)
				errors.WriteError(w, errors.ErrForbidden)
				return
			}
			ctx := WithClaims(r.Context(), claims)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(
				logger.PrincipalID(ClaimString(claims, "sub")),
				logger.TenantID(ClaimString(claims, "tid")),
			))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
