// Package memory implementa los repositorios en memoria.
// Sirve para dev, tests y despliegues de un solo proceso.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dropDatabas3/hellodesk/internal/domain/repository"
	"github.com/dropDatabas3/hellodesk/internal/store"
)

func init() {
	store.RegisterAdapter(adapter{})
}

type adapter struct{}

func (adapter) Name() string { return "memory" }

func (adapter) Connect(context.Context, store.AdapterConfig) (store.Connection, error) {
	return New(), nil
}

type principalKey struct{ tenant, id string }
type loginKey struct{ tenant, login string }
type roleKey struct{ tenant, name string }

// Store guarda todo detrás de un único mutex; Consume es atómico por construcción.
type Store struct {
	mu sync.Mutex

	principals map[principalKey]repository.Principal
	logins     map[loginKey]string
	roles      map[roleKey]map[repository.ClaimKind][]string
	assigned   map[principalKey][]string

	tokens map[string]*repository.RefreshToken // por id
	byHash map[string]string                   // hash -> id

	audit []repository.AuditRecord
}

func New() *Store {
	return &Store{
		principals: map[principalKey]repository.Principal{},
		logins:     map[loginKey]string{},
		roles:      map[roleKey]map[repository.ClaimKind][]string{},
		assigned:   map[principalKey][]string{},
		tokens:     map[string]*repository.RefreshToken{},
		byHash:     map[string]string{},
	}
}

// ─── store.Connection ───

func (s *Store) Name() string                 { return "memory" }
func (s *Store) Ping(context.Context) error   { return nil }
func (s *Store) Close() error                 { return nil }
func (s *Store) Migrate(context.Context) error { return nil }

func (s *Store) Principals() repository.PrincipalRepository { return s }
func (s *Store) RBAC() repository.RBACRepository             { return s }
func (s *Store) Tokens() repository.TokenRepository          { return (*tokenRepo)(s) }
func (s *Store) Audit() repository.AuditRepository           { return (*auditRepo)(s) }

// ─── Principals ───

// PutPrincipal crea o reemplaza un principal (login normalizado acá).
func (s *Store) PutPrincipal(p repository.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Login = repository.NormalizeLogin(p.Login)
	if p.ID == "" || p.TenantID == "" || p.Login == "" {
		return repository.ErrInvalidInput
	}
	lk := loginKey{p.TenantID, p.Login}
	if owner, ok := s.logins[lk]; ok && owner != p.ID {
		return repository.ErrConflict
	}
	if prev, ok := s.principals[principalKey{p.TenantID, p.ID}]; ok && prev.Login != p.Login {
		delete(s.logins, loginKey{p.TenantID, prev.Login})
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.principals[principalKey{p.TenantID, p.ID}] = p
	s.logins[lk] = p.ID
	return nil
}

func (s *Store) GetByLogin(_ context.Context, tenantID, login string) (*repository.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.logins[loginKey{tenantID, repository.NormalizeLogin(login)}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p := s.principals[principalKey{tenantID, id}]
	return &p, nil
}

func (s *Store) GetByID(_ context.Context, tenantID, principalID string) (*repository.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.principals[principalKey{tenantID, principalID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *Store) SetActive(_ context.Context, tenantID, principalID string, flag repository.ActiveFlag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := principalKey{tenantID, principalID}
	p, ok := s.principals[k]
	if !ok {
		return repository.ErrNotFound
	}
	p.Active = flag
	s.principals[k] = p
	return nil
}

// ─── RBAC ───

// PutRole crea o reemplaza los permisos de un rol.
func (s *Store) PutRole(tenantID, role string, perms ...string) {
	s.PutRoleClaims(tenantID, role, repository.ClaimPermission, perms...)
}

// PutRoleClaims reemplaza los claims de un tipo; crea el rol si no existe.
func (s *Store) PutRoleClaims(tenantID, role string, kind repository.ClaimKind, values ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := roleKey{tenantID, role}
	if s.roles[k] == nil {
		s.roles[k] = map[repository.ClaimKind][]string{}
	}
	s.roles[k][kind] = slices.Clone(values)
}

func (s *Store) DeleteRole(tenantID, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roles, roleKey{tenantID, role})
}

// AssignRole no valida que el rol exista: las referencias colgantes son válidas.
func (s *Store) AssignRole(tenantID, principalID, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := principalKey{tenantID, principalID}
	if !slices.Contains(s.assigned[k], role) {
		s.assigned[k] = append(s.assigned[k], role)
	}
}

func (s *Store) PrincipalRoles(_ context.Context, tenantID, principalID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.assigned[principalKey{tenantID, principalID}]), nil
}

func (s *Store) RolePermissions(_ context.Context, tenantID, role string) ([]repository.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byKind, ok := s.roles[roleKey{tenantID, role}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := make([]repository.Permission, 0, len(byKind[repository.ClaimPermission]))
	for _, name := range byKind[repository.ClaimPermission] {
		out = append(out, repository.Permission{Name: name})
	}
	return out, nil
}

// ─── Audit ───

type auditRepo Store

func (a *auditRepo) Insert(_ context.Context, rec repository.AuditRecord) error {
	s := (*Store)(a)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, rec)
	return nil
}

// AuditRecords devuelve una copia de lo auditado.
func (s *Store) AuditRecords() []repository.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.audit)
}
