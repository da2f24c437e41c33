// Package router arma el chi.Router con todas las rutas del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/hellodesk/internal/http/controllers/health"
	"github.com/dropDatabas3/hellodesk/internal/http/controllers/oauth"
	mw "github.com/dropDatabas3/hellodesk/internal/http/middlewares"
	"github.com/dropDatabas3/hellodesk/internal/jwt"
	"github.com/dropDatabas3/hellodesk/internal/metrics"
	"github.com/dropDatabas3/hellodesk/internal/rate"
)

const maxFormBody = 64 << 10

type Deps struct {
	Grants  oauth.Service
	JWT     *jwt.Issuer
	Health  *health.Controller
	Metrics *metrics.Metrics // nil => sin /metrics
	Limiter rate.Limiter     // nil => sin rate limit
}

func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithLogging(),
		mw.WithMetrics(d.Metrics),
		mw.WithSecurityHeaders(),
	)

	r.Get("/healthz", d.Health.Healthz)
	r.Get("/readyz", d.Health.Readyz)
	r.Get("/.well-known/jwks.json", d.Health.JWKS)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	token := oauth.NewTokenController(d.Grants)
	authz := oauth.NewAuthorizeController(d.Grants)
	revoke := oauth.NewRevokeController(d.Grants)

	r.Route("/oauth2", func(r chi.Router) {
		r.Use(mw.WithNoStore(), mw.WithMaxBody(maxFormBody))

		r.With(mw.WithRateLimit(d.Limiter, mw.ClientRateKey)).Post("/token", token.Token)
		r.Post("/revoke", revoke.Revoke)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth(d.JWT))
			r.Post("/authorize", authz.Authorize)
			r.Post("/logout-all", revoke.LogoutAll)
		})
	})
	return r
}
