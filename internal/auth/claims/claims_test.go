package claims

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellodesk/internal/domain/repository"
)

func perms(names ...string) []repository.Permission {
	out := make([]repository.Permission, len(names))
	for i, n := range names {
		out[i] = repository.Permission{Name: n}
	}
	return out
}

var alice = repository.Principal{
	ID: "p-alice", TenantID: "acme", DisplayName: "Alice", Email: "alice@acme.test",
	Profile: "agent", Active: repository.Active,
}

func TestBuild_SupportAgentGetsExactlyItsPermissions(t *testing.T) {
	idx := PermissionIndex{
		"support-agent": perms("ticket:read", "ticket:write"),
		"admin":         perms("tenant:admin"),
	}
	s := Build(alice, []string{"support-agent"}, idx)

	assert.Equal(t, []string{"support-agent"}, s.Roles)
	assert.Equal(t, []string{"ticket:read", "ticket:write"}, s.Permissions)
	assert.Equal(t, "p-alice", s.Subject)
	assert.Equal(t, "acme", s.TenantID)
	assert.Equal(t, "agent", s.Profile)
}

func TestBuild_CaseInsensitiveDedup(t *testing.T) {
	idx := PermissionIndex{
		"a": perms("Ticket:Read", "ticket:write"),
		"b": perms("TICKET:READ", "ticket:read", " "),
	}
	s := Build(alice, []string{"a", "b"}, idx)
	assert.Equal(t, []string{"TICKET:READ", "ticket:write"}, s.Permissions)
	assert.True(t, s.HasPermission("ticket:READ"))
	assert.False(t, s.HasPermission("ticket:delete"))
}

func TestBuild_DanglingRoleSkipped(t *testing.T) {
	idx := PermissionIndex{"agent": perms("ticket:read"), "empty": nil}
	s := Build(alice, []string{"ghost", "agent", "empty", ""}, idx)
	assert.Equal(t, []string{"agent", "empty"}, s.Roles)
	assert.Equal(t, []string{"ticket:read"}, s.Permissions)
}

func TestBuild_CommutativeAndIdempotent(t *testing.T) {
	idx := PermissionIndex{
		"r1": perms("a:x", "B:y", "c:z"),
		"r2": perms("b:Y", "d:w"),
		"r3": perms("A:X", "e:v"),
		"r4": nil,
	}
	roles := []string{"r1", "r2", "r3", "r4", "R1"}
	idx["R1"] = perms("f:u")

	want := Build(alice, roles, idx)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		shuffled := append([]string(nil), roles...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := Build(alice, shuffled, idx)
		require.Equal(t, want, got)
		require.Equal(t, got, Build(alice, shuffled, idx))
	}
}

// rbacFake responde roles/permisos desde mapas y cuenta llamadas.
type rbacFake struct {
	mu    sync.Mutex
	roles map[string][]string
	perms map[string][]repository.Permission
	err   map[string]error
	calls int
}

func (f *rbacFake) PrincipalRoles(_ context.Context, _, principalID string) ([]string, error) {
	return f.roles[principalID], nil
}

func (f *rbacFake) RolePermissions(_ context.Context, _, role string) ([]repository.Permission, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if err := f.err[role]; err != nil {
		return nil, err
	}
	p, ok := f.perms[role]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func TestAssembler_Assemble(t *testing.T) {
	rbac := &rbacFake{
		roles: map[string][]string{"p-alice": {"agent", "ghost", "agent", "viewer"}},
		perms: map[string][]repository.Permission{
			"agent":  perms("ticket:read", "ticket:write"),
			"viewer": perms("TICKET:READ", "report:view"),
		},
	}
	a := NewAssembler(rbac)

	s, err := a.Assemble(context.Background(), &alice)
	require.NoError(t, err)
	assert.Equal(t, []string{"agent", "viewer"}, s.Roles)
	assert.Equal(t, []string{"TICKET:READ", "report:view", "ticket:write"}, s.Permissions)
	assert.Equal(t, 3, rbac.calls, "duplicated role fetched once")

	again, err := a.Assemble(context.Background(), &alice)
	require.NoError(t, err)
	assert.Equal(t, s, again)
}

func TestAssembler_RevokedPermissionVisibleOnNextAssemble(t *testing.T) {
	rbac := &rbacFake{
		roles: map[string][]string{"p-alice": {"agent"}},
		perms: map[string][]repository.Permission{"agent": perms("ticket:read", "ticket:write")},
	}
	a := NewAssembler(rbac)

	s, err := a.Assemble(context.Background(), &alice)
	require.NoError(t, err)
	require.Len(t, s.Permissions, 2)

	rbac.perms["agent"] = perms("ticket:read")
	s, err = a.Assemble(context.Background(), &alice)
	require.NoError(t, err)
	assert.Equal(t, []string{"ticket:read"}, s.Permissions)
}

func TestAssembler_StorageErrorAborts(t *testing.T) {
	boom := errors.New("db down")
	rbac := &rbacFake{
		roles: map[string][]string{"p-alice": {"agent"}},
		err:   map[string]error{"agent": boom},
	}
	_, err := NewAssembler(rbac).Assemble(context.Background(), &alice)
	require.ErrorIs(t, err, boom)
}
