// Package app arma el servicio completo a partir de la config: storage,
// cache, control plane, núcleo de auth, auditoría y el router HTTP.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dropDatabas3/hellodesk/internal/audit"
	"github.com/dropDatabas3/hellodesk/internal/auth/claims"
	"github.com/dropDatabas3/hellodesk/internal/auth/credentials"
	"github.com/dropDatabas3/hellodesk/internal/auth/grants"
	"github.com/dropDatabas3/hellodesk/internal/auth/issuance"
	"github.com/dropDatabas3/hellodesk/internal/auth/refresh"
	"github.com/dropDatabas3/hellodesk/internal/cache"
	"github.com/dropDatabas3/hellodesk/internal/config"
	"github.com/dropDatabas3/hellodesk/internal/controlplane"
	"github.com/dropDatabas3/hellodesk/internal/http/controllers/health"
	"github.com/dropDatabas3/hellodesk/internal/http/router"
	"github.com/dropDatabas3/hellodesk/internal/jwt"
	"github.com/dropDatabas3/hellodesk/internal/metrics"
	"github.com/dropDatabas3/hellodesk/internal/observability/logger"
	"github.com/dropDatabas3/hellodesk/internal/rate"
	"github.com/dropDatabas3/hellodesk/internal/security/password"
	"github.com/dropDatabas3/hellodesk/internal/store"

	// adapters de storage (se registran en init)
	_ "github.com/dropDatabas3/hellodesk/internal/store/memory"
	_ "github.com/dropDatabas3/hellodesk/internal/store/pg"
)

// App es el servicio cableado.
type App struct {
	Handler http.Handler

	Store   store.Connection
	Cache   cache.Client
	Keys    *jwt.KeySet
	JWT     *jwt.Issuer
	Grants  *grants.Service
	Metrics *metrics.Metrics

	audit *audit.Async
}

// Options permite inyectar piezas en tests.
type Options struct {
	// Registerer de prometheus; nil => registry propio.
	Registerer prometheus.Registerer
	// Keys reemplaza la clave derivada de la config.
	Keys *jwt.KeySet
}

// New construye todo. Si algo falla, libera lo que ya abrió.
func New(ctx context.Context, cfg *config.Config, opts Options) (_ *App, err error) {
	log := logger.L().With(logger.Layer("app"))
	a := &App{}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	a.Store, err = store.Open(ctx, store.AdapterConfig{
		Name:     cfg.Storage.Driver,
		DSN:      cfg.Storage.DSN,
		MaxConns: cfg.Storage.Postgres.MaxConns,
		MinConns: cfg.Storage.Postgres.MinConns,
	})
	if err != nil {
		return nil, err
	}
	if m, ok := a.Store.(store.Migrator); ok {
		if err = m.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	a.Cache, err = cache.New(cache.Config{
		Kind:     cfg.Cache.Kind,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if a.Metrics, err = metrics.New(reg); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	if p, ok := a.Store.(interface{ Pool() *pgxpool.Pool }); ok {
		if err = metrics.RegisterPool(reg, p.Pool); err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
	}

	clients, err := controlplane.FromConfig(cfg.Clients)
	if err != nil {
		return nil, fmt.Errorf("clients: %w", err)
	}
	if clients.Len() == 0 {
		log.Warn("no oauth clients configured")
	}

	if a.Keys = opts.Keys; a.Keys == nil {
		if a.Keys, err = signingKeys(cfg, log); err != nil {
			return nil, err
		}
	}
	a.JWT = jwt.NewIssuer(cfg.JWT.Issuer, a.Keys)

	rot := refresh.NewRotator(a.Store.Tokens(), cfg.RefreshTTL())
	rot.OpTimeout = cfg.OpTimeout()

	sinks := audit.Multi{audit.LogSink{L: logger.Named("audit")}}
	if cfg.Audit.StoreEnabled {
		sinks = append(sinks, audit.StoreSink{Repo: a.Store.Audit()})
	}
	a.audit = audit.NewAsync(sinks, cfg.Audit.QueueSize)
	a.audit.OnDrop = a.Metrics.AuditDropped

	verifier := credentials.NewVerifier(a.Store.Principals())
	verifier.Params = argon2Params(cfg)

	a.Grants = &grants.Service{
		Clients:    clients,
		Verifier:   verifier,
		Principals: a.Store.Principals(),
		Claims:     claims.NewAssembler(a.Store.RBAC()),
		Issuer:     issuance.New(a.JWT, rot, cfg.AccessTTL()),
		Refresh:    rot,
		Codes:      a.Cache,
		Audit:      a.audit,
		Metrics:    a.Metrics,
		CodeTTL:    cfg.AuthCodeTTL(),
	}

	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		limiter = newLimiter(cfg, a.Cache)
	}

	a.Handler = router.New(router.Deps{
		Grants: a.Grants,
		JWT:    a.JWT,
		Health: health.NewController(a.Keys,
			health.Check{Name: "store", Ping: a.Store.Ping},
			health.Check{Name: "cache", Ping: a.Cache.Ping},
		),
		Metrics: a.Metrics,
		Limiter: limiter,
	})

	log.Info("app wired",
		logger.String("store", a.Store.Name()),
		logger.String("cache", cfg.Cache.Kind),
		logger.Int("clients", clients.Len()),
		logger.Bool("rate_limit", limiter != nil),
		logger.Bool("audit_store", cfg.Audit.StoreEnabled),
	)
	return a, nil
}

func signingKeys(cfg *config.Config, log *zap.Logger) (*jwt.KeySet, error) {
	if cfg.JWT.SigningKeySeed != "" {
		ks, err := jwt.NewEd25519FromBase64Seed(cfg.JWT.KID, cfg.JWT.SigningKeySeed)
		if err != nil {
			return nil, fmt.Errorf("signing key: %w", err)
		}
		return ks, nil
	}
	log.Warn("jwt.signing_key_seed empty, using ephemeral key (tokens die with the process)")
	return jwt.NewDevEd25519(cfg.JWT.KID)
}

func argon2Params(cfg *config.Config) password.Params {
	a := cfg.Security.Argon2
	return password.Params{Memory: a.MemoryKiB, Time: a.Time, Parallelism: a.Parallelism}.WithDefaults()
}

// newLimiter: con redis el contador es compartido entre réplicas.
func newLimiter(cfg *config.Config, c cache.Client) rate.Limiter {
	if r, ok := c.(*cache.Redis); ok {
		return rate.NewRedisLimiter(r.Client(), cfg.Cache.Redis.Prefix+"rl:", cfg.Rate.Limit, cfg.RateWindow())
	}
	return rate.NewMemoryLimiter(cfg.Rate.Limit, cfg.RateWindow())
}

// Close vacía la cola de auditoría y cierra cache y storage.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.audit != nil {
		if err := a.audit.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("audit: %w", err))
		}
	}
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}
