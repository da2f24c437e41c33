package issuance

import (
	"slices"
	"strings"

	"github.com/dropDatabas3/hellodesk/internal/controlplane"
)

// Scopes conocidos. Cualquier otro pedido se descarta en silencio.
const (
	ScopeOpenID        = "openid"
	ScopeProfile       = "profile"
	ScopeEmail         = "email"
	ScopeRoles         = "roles"
	ScopeOfflineAccess = "offline_access"
	ScopeAPI           = "api"
)

var knownScopes = []string{ScopeOpenID, ScopeProfile, ScopeEmail, ScopeRoles, ScopeOfflineAccess, ScopeAPI}

// userScopes solo tienen sentido con un principal detrás.
var userScopes = []string{ScopeOpenID, ScopeProfile, ScopeEmail, ScopeRoles, ScopeOfflineAccess}

// allowedByGrant: qué scopes puede obtener cada grant.
func allowedByGrant(g controlplane.GrantType) []string {
	switch g {
	case controlplane.GrantAuthorizationCode, controlplane.GrantPassword, controlplane.GrantRefreshToken:
		return knownScopes
	case controlplane.GrantClientCredentials:
		return []string{ScopeAPI}
	default:
		return nil
	}
}

// ParseScope separa "a b  c" en ["a","b","c"].
func ParseScope(s string) []string {
	return strings.Fields(s)
}

// FormatScope es el inverso de ParseScope.
func FormatScope(scopes []string) string {
	return strings.Join(scopes, " ")
}

// GrantScopes = pedido ∩ conocidos ∩ permitidos por el grant ∩ permitidos por el cliente.
// Si no se pidió nada se usan los default del cliente (restore=false).
// Con restore=true (code exchange, refresh) los scopes vienen de una emisión
// previa y nunca se expanden a los default.
// El resultado sale deduplicado y en orden canónico (el de knownScopes).
func GrantScopes(requested []string, c *controlplane.Client, g controlplane.GrantType, restore bool) []string {
	if len(requested) == 0 && !restore {
		requested = c.DefaultScopes
	}
	allowed := allowedByGrant(g)
	out := make([]string, 0, len(requested))
	for _, s := range knownScopes {
		if slices.Contains(requested, s) && slices.Contains(allowed, s) && slices.Contains(c.Scopes, s) {
			out = append(out, s)
		}
	}
	return out
}

// MintsRefresh: solo code y password obtienen refresh token nuevo;
// refresh_token rota el existente y client_credentials nunca recibe uno.
func MintsRefresh(g controlplane.GrantType) bool {
	return g == controlplane.GrantAuthorizationCode || g == controlplane.GrantPassword
}
