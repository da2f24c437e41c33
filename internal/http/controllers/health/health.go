// Package health expone /healthz, /readyz y el JWKS.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/hellodesk/internal/http/errors"
	"github.com/dropDatabas3/hellodesk/internal/jwt"
	"github.com/dropDatabas3/hellodesk/internal/observability/logger"
)

// Check es una dependencia que /readyz consulta.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type Controller struct {
	checks  []Check
	keys    *jwt.KeySet
	timeout time.Duration
}

func NewController(keys *jwt.KeySet, checks ...Check) *Controller {
	return &Controller{checks: checks, keys: keys, timeout: 2 * time.Second}
}

// Healthz: el proceso está vivo.
func (c *Controller) Healthz(w http.ResponseWriter, _ *http.Request) {
	errors.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz: storage y cache responden.
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	failed := map[string]string{}
	for _, ch := range c.checks {
		if err := ch.Ping(ctx); err != nil {
			failed[ch.Name] = err.Error()
		}
	}
	if len(failed) > 0 {
		logger.From(ctx).Warn("not ready", logger.Any("failed", failed))
		errors.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failed": failed})
		return
	}
	errors.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// JWKS publica las claves públicas (activa + en retiro).
func (c *Controller) JWKS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(c.keys.JWKSJSON())
}
