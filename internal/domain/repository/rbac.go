package repository

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"
)

// ClaimKind distingue el tipo de claim asociado a un rol.
type ClaimKind uint8

const (
	ClaimPermission ClaimKind = iota + 1
	ClaimRole
)

func (k ClaimKind) String() string {
	switch k {
	case ClaimPermission:
		return "permission"
	case ClaimRole:
		return "role"
	default:
		return "unknown"
	}
}

// ParseClaimKind acepta los valores de wire ("permission", "role").
func ParseClaimKind(s string) (ClaimKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "permission":
		return ClaimPermission, nil
	case "role":
		return ClaimRole, nil
	}
	return 0, fmt.Errorf("%w: claim kind %q", ErrInvalidInput, s)
}

func (k ClaimKind) MarshalText() ([]byte, error) {
	switch k {
	case ClaimPermission, ClaimRole:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("%w: claim kind %d", ErrInvalidInput, uint8(k))
}

func (k *ClaimKind) UnmarshalText(b []byte) error {
	v, err := ParseClaimKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Scan implementa sql.Scanner (columna claim_kind).
func (k *ClaimKind) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return k.UnmarshalText([]byte(v))
	case []byte:
		return k.UnmarshalText(v)
	default:
		return fmt.Errorf("%w: claim kind type %T", ErrInvalidInput, src)
	}
}

// Value implementa driver.Valuer.
func (k ClaimKind) Value() (driver.Value, error) {
	b, err := k.MarshalText()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Role es un grupo con nombre dentro de un tenant.
type Role struct {
	TenantID    string
	Name        string
	Permissions []Permission
}

// Permission es una capacidad con nombre. La unicidad es case-insensitive.
type Permission struct {
	Name string
}

// Key es la forma normalizada (mayúsculas) usada para deduplicar.
func (p Permission) Key() string {
	return strings.ToUpper(strings.TrimSpace(p.Name))
}

// RBACRepository: roles del principal y permisos de cada rol.
type RBACRepository interface {
	// PrincipalRoles retorna los nombres de rol asignados al principal.
	PrincipalRoles(ctx context.Context, tenantID, principalID string) ([]string, error)

	// RolePermissions retorna los claims de tipo permission de un rol.
	// Retorna ErrNotFound si el rol no existe.
	RolePermissions(ctx context.Context, tenantID, role string) ([]Permission, error)
}
