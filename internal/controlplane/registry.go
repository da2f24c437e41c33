package controlplane

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dropDatabas3/hellodesk/internal/config"
	"github.com/dropDatabas3/hellodesk/internal/security/password"
	"github.com/dropDatabas3/hellodesk/internal/validation"
)

var (
	ErrClientNotFound = errors.New("client not found")
	ErrBadSecret      = errors.New("client authentication failed")
)

// Registry resuelve clientes por client_id. Es seguro para uso concurrente.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewRegistry(clients ...Client) *Registry {
	r := &Registry{clients: make(map[string]*Client, len(clients))}
	for i := range clients {
		c := clients[i]
		r.clients[c.ClientID] = &c
	}
	return r
}

// FromConfig convierte la sección clients del YAML.
func FromConfig(list []config.Client) (*Registry, error) {
	out := make([]Client, 0, len(list))
	for _, cc := range list {
		c := Client{
			ClientID:      strings.TrimSpace(cc.ClientID),
			TenantID:      strings.TrimSpace(cc.TenantID),
			Name:          cc.Name,
			Type:          ClientType(strings.ToLower(cc.Type)),
			SecretHash:    cc.SecretHash,
			RedirectURIs:  cc.RedirectURIs,
			Scopes:        cc.Scopes,
			DefaultScopes: cc.DefaultScopes,
			RequirePKCE:   cc.RequirePKCE,
		}
		for _, g := range cc.GrantTypes {
			gt := GrantType(strings.ToLower(strings.TrimSpace(g)))
			switch gt {
			case GrantAuthorizationCode, GrantPassword, GrantRefreshToken, GrantClientCredentials:
				c.GrantTypes = append(c.GrantTypes, gt)
			default:
				return nil, fmt.Errorf("client %s: unknown grant type %q", c.ClientID, g)
			}
		}
		if err := validation.Scopes(append(slices.Clone(c.Scopes), c.DefaultScopes...)); err != nil {
			return nil, fmt.Errorf("client %s: %w", c.ClientID, err)
		}
		if c.IsPublic() && c.AllowsGrant(GrantClientCredentials) {
			return nil, fmt.Errorf("client %s: public clients cannot use client_credentials", c.ClientID)
		}
		out = append(out, c)
	}
	return NewRegistry(out...), nil
}

// Get devuelve una copia del cliente.
func (r *Registry) Get(clientID string) (*Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[clientID]
	if !ok {
		return nil, ErrClientNotFound
	}
	cp := *c
	return &cp, nil
}

// Authenticate resuelve el cliente y, si es confidencial, verifica el secret.
// Los públicos no deben mandar secret; si lo mandan se ignora.
func (r *Registry) Authenticate(clientID, secret string) (*Client, error) {
	c, err := r.Get(clientID)
	if err != nil {
		password.VerifyDummy(secret)
		return nil, err
	}
	if c.IsPublic() {
		return c, nil
	}
	if secret == "" || !password.Verify(secret, c.SecretHash) {
		return nil, ErrBadSecret
	}
	return c, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
