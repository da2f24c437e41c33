package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env      string `yaml:"app_env"`
		LogLevel string `yaml:"log_level"`
		Name     string `yaml:"name"`
	} `yaml:"app"`

	Server struct {
		Addr         string `yaml:"addr"`
		ReadTimeout  string `yaml:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout"`
		// ShutdownGrace: cuánto esperamos a requests en vuelo al apagar.
		ShutdownGrace string `yaml:"shutdown_grace"`
	} `yaml:"server"`

	Storage struct {
		Driver string `yaml:"driver"` // memory | postgres
		DSN    string `yaml:"dsn"`
		// OpTimeout acota operaciones que corren desacopladas del ctx del request
		// (rotación de refresh tokens, revocaciones en cascada).
		OpTimeout string `yaml:"op_timeout"`
		Postgres  struct {
			MaxConns int32 `yaml:"max_conns"`
			MinConns int32 `yaml:"min_conns"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	JWT struct {
		Issuer      string `yaml:"issuer"`
		AccessTTL   string `yaml:"access_ttl"`
		RefreshTTL  string `yaml:"refresh_ttl"`
		AuthCodeTTL string `yaml:"auth_code_ttl"`
		// SigningKeySeed: base64 de 32 bytes (seed Ed25519). Vacío => clave efímera (solo dev).
		SigningKeySeed string `yaml:"signing_key_seed"`
		KID            string `yaml:"kid"`
	} `yaml:"jwt"`

	Security struct {
		Argon2 struct {
			MemoryKiB   uint32 `yaml:"memory_kib"`
			Time        uint32 `yaml:"time"`
			Parallelism uint8  `yaml:"parallelism"`
		} `yaml:"argon2"`
	} `yaml:"security"`

	Rate struct {
		Enabled bool   `yaml:"enabled"`
		Limit   int    `yaml:"limit"`
		Window  string `yaml:"window"`
	} `yaml:"rate"`

	Audit struct {
		QueueSize    int  `yaml:"queue_size"`
		StoreEnabled bool `yaml:"store_enabled"`
	} `yaml:"audit"`

	Tracing struct {
		Endpoint    string  `yaml:"endpoint"`
		SampleRatio float64 `yaml:"sample_ratio"`
	} `yaml:"tracing"`

	// Clients es el registro estático de clientes OAuth (control plane).
	Clients []Client `yaml:"clients"`
}

type Client struct {
	ClientID   string `yaml:"client_id"`
	TenantID   string `yaml:"tenant_id"`
	Name       string `yaml:"name"`
	Type       string `yaml:"type"` // public | confidential
	SecretHash string `yaml:"secret_hash"`

	RedirectURIs  []string `yaml:"redirect_uris"`
	GrantTypes    []string `yaml:"grant_types"`
	Scopes        []string `yaml:"scopes"`
	DefaultScopes []string `yaml:"default_scopes"`
	RequirePKCE   bool     `yaml:"require_pkce"`
}

// Load lee el YAML, aplica defaults y overrides de entorno y valida.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse es Load sin tocar el filesystem.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("config: yaml: %w", err)
	}
	c.applyDefaults()
	c.applyEnvOverrides()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.Name == "" {
		c.App.Name = "hellodesk"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "15s"
	}
	if c.Server.ShutdownGrace == "" {
		c.Server.ShutdownGrace = "15s"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.OpTimeout == "" {
		c.Storage.OpTimeout = "5s"
	}
	if c.Storage.Postgres.MaxConns == 0 {
		c.Storage.Postgres.MaxConns = 10
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "hellodesk:"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "15m"
	}
	if c.JWT.RefreshTTL == "" {
		c.JWT.RefreshTTL = "720h" // 30d
	}
	if c.JWT.KID == "" {
		c.JWT.KID = "main"
	}
	if c.JWT.AuthCodeTTL == "" {
		c.JWT.AuthCodeTTL = "5m"
	}
	if c.Rate.Limit == 0 {
		c.Rate.Limit = 20
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Audit.QueueSize == 0 {
		c.Audit.QueueSize = 1024
	}
}

// Validate chequea lo que no tiene default razonable.
func (c *Config) Validate() error {
	var errs []error

	for name, v := range map[string]string{
		"server.read_timeout":   c.Server.ReadTimeout,
		"server.write_timeout":  c.Server.WriteTimeout,
		"server.shutdown_grace": c.Server.ShutdownGrace,
		"storage.op_timeout":    c.Storage.OpTimeout,
		"jwt.access_ttl":        c.JWT.AccessTTL,
		"jwt.refresh_ttl":       c.JWT.RefreshTTL,
		"jwt.auth_code_ttl":     c.JWT.AuthCodeTTL,
		"rate.window":           c.Rate.Window,
	} {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s: must be positive", name))
		}
	}

	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			errs = append(errs, errors.New("storage.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unknown %q", c.Storage.Driver))
	}

	switch c.Cache.Kind {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.Cache.Redis.Addr) == "" {
			errs = append(errs, errors.New("cache.redis.addr is required for redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.kind: unknown %q", c.Cache.Kind))
	}

	if strings.TrimSpace(c.JWT.Issuer) == "" {
		errs = append(errs, errors.New("jwt.issuer is required"))
	}
	if strings.EqualFold(c.App.Env, "prod") && c.JWT.SigningKeySeed == "" {
		errs = append(errs, errors.New("jwt.signing_key_seed is required in prod"))
	}

	seen := map[string]bool{}
	for i, cl := range c.Clients {
		if cl.ClientID == "" || cl.TenantID == "" {
			errs = append(errs, fmt.Errorf("clients[%d]: client_id and tenant_id are required", i))
			continue
		}
		if seen[cl.ClientID] {
			errs = append(errs, fmt.Errorf("clients[%d]: duplicate client_id %q", i, cl.ClientID))
		}
		seen[cl.ClientID] = true
		switch cl.Type {
		case "public":
		case "confidential":
			if cl.SecretHash == "" {
				errs = append(errs, fmt.Errorf("clients[%d]: confidential client without secret_hash", i))
			}
		default:
			errs = append(errs, fmt.Errorf("clients[%d]: type must be public or confidential", i))
		}
	}

	return errors.Join(errs...)
}

// mustDur: solo se usa después de Validate, así que el parse no puede fallar.
func mustDur(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

func (c *Config) AccessTTL() time.Duration     { return mustDur(c.JWT.AccessTTL) }
func (c *Config) RefreshTTL() time.Duration    { return mustDur(c.JWT.RefreshTTL) }
func (c *Config) AuthCodeTTL() time.Duration   { return mustDur(c.JWT.AuthCodeTTL) }
func (c *Config) OpTimeout() time.Duration     { return mustDur(c.Storage.OpTimeout) }
func (c *Config) RateWindow() time.Duration    { return mustDur(c.Rate.Window) }
func (c *Config) ReadTimeout() time.Duration   { return mustDur(c.Server.ReadTimeout) }
func (c *Config) WriteTimeout() time.Duration  { return mustDur(c.Server.WriteTimeout) }
func (c *Config) ShutdownGrace() time.Duration { return mustDur(c.Server.ShutdownGrace) }
