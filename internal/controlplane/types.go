// Package controlplane mantiene el registro de clientes OAuth por tenant.
package controlplane

import "slices"

// ClientType define el tipo de cliente.
type ClientType string

const (
	ClientTypePublic       ClientType = "public"
	ClientTypeConfidential ClientType = "confidential"
)

// GrantType es el valor de grant_type en /oauth2/token.
type GrantType string

const (
	GrantAuthorizationCode GrantType = "authorization_code"
	GrantPassword          GrantType = "password"
	GrantRefreshToken      GrantType = "refresh_token"
	GrantClientCredentials GrantType = "client_credentials"
)

// Client es la definición de un cliente. Inmutable una vez cargado.
type Client struct {
	ClientID   string
	TenantID   string
	Name       string
	Type       ClientType
	SecretHash string // argon2id/bcrypt; vacío en públicos

	RedirectURIs  []string // match exacto
	GrantTypes    []GrantType
	Scopes        []string
	DefaultScopes []string
	RequirePKCE   bool
}

func (c *Client) IsPublic() bool { return c.Type == ClientTypePublic }

func (c *Client) AllowsGrant(g GrantType) bool {
	return slices.Contains(c.GrantTypes, g)
}

func (c *Client) AllowsRedirect(uri string) bool {
	return uri != "" && slices.Contains(c.RedirectURIs, uri)
}

// MustUsePKCE: los públicos siempre, los confidenciales si lo piden.
func (c *Client) MustUsePKCE() bool {
	return c.IsPublic() || c.RequirePKCE
}
