package issuance

import (
	"slices"

	"github.com/google/uuid"

	"github.com/dropDatabas3/hellodesk/internal/auth/claims"
	"github.com/dropDatabas3/hellodesk/internal/controlplane"
)

// accessClaims: el access token lleva el claim set completo.
// client_credentials no tiene principal, solo tenant del cliente.
func accessClaims(s claims.Set, c *controlplane.Client, g controlplane.GrantType, granted []string) map[string]any {
	m := map[string]any{
		"jti":           uuid.NewString(),
		"client_id":     c.ClientID,
		"grant":         string(g),
		"scope":         FormatScope(granted),
		claims.TokenUse: claims.UseAccess,
	}
	if g == controlplane.GrantClientCredentials {
		m[claims.Tenant] = c.TenantID
		return m
	}
	m[claims.Tenant] = s.TenantID
	m[claims.Name] = s.DisplayName
	m[claims.Email] = s.Email
	m[claims.Profile] = s.Profile
	m[claims.Roles] = nonNil(s.Roles)
	m[claims.Permissions] = nonNil(s.Permissions)
	return m
}

// identityClaims: sub y tid siempre; el resto según scope.
// Los permisos nunca van al identity token.
func identityClaims(s claims.Set, granted []string) map[string]any {
	m := map[string]any{claims.Tenant: s.TenantID, claims.TokenUse: claims.UseIdentity}
	if slices.Contains(granted, ScopeProfile) {
		m[claims.Name] = s.DisplayName
		m[claims.Profile] = s.Profile
	}
	if slices.Contains(granted, ScopeEmail) {
		m[claims.Email] = s.Email
	}
	if slices.Contains(granted, ScopeRoles) {
		m[claims.Roles] = nonNil(s.Roles)
	}
	return m
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
