// Package pg implementa los repositorios sobre PostgreSQL.
//
// Las queries van por database/sql (driver pgx/stdlib sobre un pgxpool), así
// el mismo código corre contra sqlmock en tests.
package pg

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/dropDatabas3/hellodesk/internal/domain/repository"
	"github.com/dropDatabas3/hellodesk/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// Schema devuelve el DDL embebido.
func Schema() string { return schemaSQL }

func init() {
	store.RegisterAdapter(adapter{})
}

type adapter struct{}

func (adapter) Name() string { return "postgres" }

func (adapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.Connection, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("pg: empty dsn")
	}
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = cfg.MinConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pg: pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	s := New(stdlib.OpenDBFromPool(pool))
	s.pool = pool
	return s, nil
}

// Store implementa store.Connection.
type Store struct {
	db   *sql.DB
	pool *pgxpool.Pool
}

// New envuelve un *sql.DB ya abierto.
func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Name() string { return "postgres" }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error {
	err := s.db.Close()
	if s.pool != nil {
		s.pool.Close()
	}
	return err
}

// Pool expone el pgxpool subyacente (nil si se construyó con New).
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Migrate aplica el schema embebido.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("pg: migrate: %w", err)
	}
	return nil
}

func (s *Store) Principals() repository.PrincipalRepository { return (*principalRepo)(s) }
func (s *Store) RBAC() repository.RBACRepository             { return (*rbacRepo)(s) }
func (s *Store) Tokens() repository.TokenRepository          { return (*tokenRepo)(s) }
func (s *Store) Audit() repository.AuditRepository           { return (*auditRepo)(s) }

const pgUniqueViolation = "23505"

// mapErr traduce errores del driver a errores de dominio.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%s: %w", op, repository.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func joinScopes(s []string) string { return strings.Join(s, " ") }

func splitScopes(s string) []string {
	f := strings.Fields(s)
	if len(f) == 0 {
		return nil
	}
	return f
}
