// Package store es el registry de adaptadores de almacenamiento.
// Cada adapter se registra en su init(); el binario elige uno por nombre.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dropDatabas3/hellodesk/internal/domain/repository"
)

// Adapter sabe abrir una Connection.
type Adapter interface {
	// Name: "memory", "postgres".
	Name() string
	Connect(ctx context.Context, cfg AdapterConfig) (Connection, error)
}

// Connection expone los repositorios que consume el núcleo.
type Connection interface {
	Name() string
	Ping(ctx context.Context) error
	Close() error

	Principals() repository.PrincipalRepository
	RBAC() repository.RBACRepository
	Tokens() repository.TokenRepository
	Audit() repository.AuditRepository
}

// Migrator es opcional: lo implementan las conexiones SQL.
type Migrator interface {
	Migrate(ctx context.Context) error
}

type AdapterConfig struct {
	Name string
	DSN  string

	MaxConns int32
	MinConns int32
}

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// RegisterAdapter registra un adapter. Llamar en init(); duplicados hacen panic.
func RegisterAdapter(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	name := a.Name()
	if _, exists := adapters[name]; exists {
		panic(fmt.Sprintf("store: adapter %q already registered", name))
	}
	adapters[name] = a
}

func GetAdapter(name string) (Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[name]
	return a, ok
}

func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open resuelve el adapter por nombre (con alias) y conecta.
func Open(ctx context.Context, cfg AdapterConfig) (Connection, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Name))
	switch name {
	case "pg", "postgresql":
		name = "postgres"
	case "", "mem":
		name = "memory"
	}
	a, ok := GetAdapter(name)
	if !ok {
		return nil, fmt.Errorf("store: unsupported driver %q (registered: %v)", cfg.Name, ListAdapters())
	}
	conn, err := a.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: connect %s: %w", name, err)
	}
	return conn, nil
}
