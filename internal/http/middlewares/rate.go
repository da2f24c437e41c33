package middlewares

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dropDatabas3/hellodesk/internal/http/errors"
	"github.com/dropDatabas3/hellodesk/internal/observability/logger"
	"github.com/dropDatabas3/hellodesk/internal/rate"
)

// RateKeyFunc define la clave de rate limiting.
type RateKeyFunc func(r *http.Request) string

// ClientRateKey: IP + path + client_id del form (o de Basic auth).
func ClientRateKey(r *http.Request) string {
	clientID, _, ok := r.BasicAuth()
	if !ok {
		clientID = r.PostFormValue("client_id")
	}
	if clientID == "" {
		clientID = "-"
	}
	return ClientIP(r) + "|" + r.URL.Path + "|" + strings.TrimSpace(clientID)
}

// WithRateLimit responde 429 con Retry-After al superar el límite.
// Si el limiter falla se deja pasar el request (fail-open) y se loguea.
func WithRateLimit(l rate.Limiter, key RateKeyFunc) Middleware {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		if key == nil {
			key = ClientRateKey
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := l.Allow(r.Context(), key(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if !res.Allowed {
				secs := int64(res.RetryAfter.Seconds())
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
				errors.WriteError(w, errors.ErrTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
