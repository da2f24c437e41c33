// Package claims arma el claim set de un principal autenticado:
// identidad, tenant, roles y permisos agregados de esos roles.
//
// El claim set no se cachea ni se persiste; se reconstruye en cada emisión
// para que un permiso revocado desaparezca en la próxima renovación.
package claims

import (
	"sort"
	"strings"

	"github.com/dropDatabas3/hellodesk/internal/domain/repository"
)

// Nombres de claims en los tokens.
const (
	Subject     = "sub"
	Tenant      = "tid"
	Name        = "name"
	Email       = "email"
	Profile     = "profile"
	Roles       = "roles"
	Permissions = "permissions"

	// TokenUse distingue access de identity tokens; solo "access" sirve como bearer.
	TokenUse    = "token_use"
	UseAccess   = "access"
	UseIdentity = "id"
)

// Set es el claim set efímero de una emisión.
type Set struct {
	Subject     string
	TenantID    string
	DisplayName string
	Email       string
	Profile     string
	Roles       []string
	Permissions []string
}

// PermissionIndex es un snapshot rol → permisos. Un rol ausente del índice
// es un rol colgante (asignado pero inexistente) y se ignora.
type PermissionIndex map[string][]repository.Permission

// Build es puro: mismo principal + mismos roles + mismo índice => mismo Set,
// sin importar el orden de roles ni de permisos.
func Build(p repository.Principal, roles []string, idx PermissionIndex) Set {
	roleSet := map[string]string{}
	permSet := map[string]string{}

	for _, r := range roles {
		name := strings.TrimSpace(r)
		perms, ok := idx[name]
		if name == "" || !ok {
			continue
		}
		keepSmallest(roleSet, strings.ToLower(name), name)
		for _, perm := range perms {
			key := perm.Key()
			if key == "" {
				continue
			}
			keepSmallest(permSet, key, strings.TrimSpace(perm.Name))
		}
	}

	return Set{
		Subject:     p.ID,
		TenantID:    p.TenantID,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		Profile:     p.Profile,
		Roles:       sortedValues(roleSet),
		Permissions: sortedValues(permSet),
	}
}

// keepSmallest guarda, para cada clave normalizada, la variante de escritura
// lexicográficamente menor. Así el resultado no depende del orden de llegada.
func keepSmallest(m map[string]string, key, spelling string) {
	if cur, ok := m[key]; !ok || spelling < cur {
		m[key] = spelling
	}
}

func sortedValues(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// HasPermission compara sin distinguir mayúsculas.
func (s Set) HasPermission(name string) bool {
	key := repository.Permission{Name: name}.Key()
	for _, p := range s.Permissions {
		if strings.ToUpper(p) == key {
			return true
		}
	}
	return false
}
