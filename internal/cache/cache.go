// Package cache guarda valores efímeros con TTL (authorization codes).
//
// Backends:
//   - memory: go-cache in-process (dev, tests, un solo nodo)
//   - redis: compartido entre réplicas
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound: la key no existe o ya venció.
var ErrNotFound = errors.New("cache: key not found")

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Client define las operaciones de cache.
type Client interface {
	Get(ctx context.Context, key string) (string, error)
	// Set con ttl 0 no expira.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Take lee y borra en una sola operación atómica: dos Take concurrentes
	// sobre la misma key nunca devuelven el valor los dos.
	Take(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

type Config struct {
	Kind     string // memory | redis
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// New crea el cliente según Kind.
func New(cfg Config) (Client, error) {
	switch cfg.Kind {
	case "redis":
		return NewRedis(cfg)
	case "memory", "":
		return NewMemory(cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("cache: unknown kind %q", cfg.Kind)
	}
}
