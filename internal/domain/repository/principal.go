package repository

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// ActiveFlag es el estado de activación de un principal.
// El valor cero (ActiveUnset) corresponde a NULL en la base y NO habilita login.
type ActiveFlag uint8

const (
	ActiveUnset ActiveFlag = iota
	Active
	Inactive
)

// Valores de wire heredados ("Y"/"N"). Solo se usan al serializar.
const (
	activeWireYes = "Y"
	activeWireNo  = "N"
)

func (f ActiveFlag) String() string {
	switch f {
	case Active:
		return "active"
	case Inactive:
		return "inactive"
	default:
		return "unset"
	}
}

func (f ActiveFlag) MarshalText() ([]byte, error) {
	switch f {
	case Active:
		return []byte(activeWireYes), nil
	case Inactive:
		return []byte(activeWireNo), nil
	default:
		return []byte{}, nil
	}
}

func (f *ActiveFlag) UnmarshalText(b []byte) error {
	switch strings.ToUpper(strings.TrimSpace(string(b))) {
	case activeWireYes:
		*f = Active
	case activeWireNo:
		*f = Inactive
	case "":
		*f = ActiveUnset
	default:
		return fmt.Errorf("%w: active flag %q", ErrInvalidInput, string(b))
	}
	return nil
}

// Scan implementa sql.Scanner (columna CHAR(1) nullable).
func (f *ActiveFlag) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*f = ActiveUnset
		return nil
	case string:
		return f.UnmarshalText([]byte(v))
	case []byte:
		return f.UnmarshalText(v)
	default:
		return fmt.Errorf("%w: active flag type %T", ErrInvalidInput, src)
	}
}

// Value implementa driver.Valuer.
func (f ActiveFlag) Value() (driver.Value, error) {
	if f == ActiveUnset {
		return nil, nil
	}
	b, _ := f.MarshalText()
	return string(b), nil
}

// Principal es un usuario autenticable dentro de un tenant.
type Principal struct {
	ID           string
	TenantID     string
	Login        string // normalizado, ver NormalizeLogin
	PasswordHash string
	Active       ActiveFlag
	Profile      string
	DisplayName  string
	Email        string
	CreatedAt    time.Time
	DeletedAt    *time.Time
}

// CanAuthenticate: activo y no borrado.
func (p *Principal) CanAuthenticate() bool {
	return p != nil && p.Active == Active && p.DeletedAt == nil
}

// NormalizeLogin aplica la forma canónica del login (trim + minúsculas).
func NormalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}

// PrincipalRepository: lookups de principals. Nunca hay hard delete.
type PrincipalRepository interface {
	// GetByLogin busca por login normalizado dentro del tenant.
	// Retorna ErrNotFound si no existe.
	GetByLogin(ctx context.Context, tenantID, login string) (*Principal, error)

	// GetByID retorna ErrNotFound si no existe en ese tenant.
	GetByID(ctx context.Context, tenantID, principalID string) (*Principal, error)

	// SetActive cambia el flag de activación.
	SetActive(ctx context.Context, tenantID, principalID string, flag ActiveFlag) error
}
