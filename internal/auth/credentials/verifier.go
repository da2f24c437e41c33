// Package credentials verifica login + password de un principal.
// No audita ni escribe nada: el caller decide qué registrar.
package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/hellodesk/internal/domain/repository"
	"github.com/dropDatabas3/hellodesk/internal/observability/logger"
	"github.com/dropDatabas3/hellodesk/internal/security/password"
)

var (
	// ErrInvalidCredentials cubre login inexistente, borrado y password incorrecto.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountInactive: existe pero el flag no es Active. El password no se evalúa.
	ErrAccountInactive = errors.New("account not active")
)

// Denied describe un rechazo. Principal viene cargado cuando la cuenta existe
// (inactiva o password incorrecto) para que el caller pueda auditar con su id.
type Denied struct {
	Reason    error
	Principal *repository.Principal
}

func (d *Denied) Error() string { return d.Reason.Error() }
func (d *Denied) Unwrap() error { return d.Reason }

// Verifier chequea credenciales contra el PrincipalRepository.
type Verifier struct {
	Principals repository.PrincipalRepository
	// Params vigentes; hashes más débiles se reportan para re-hash.
	Params password.Params

	dummy func(plain string) // nil => password.VerifyDummy
}

func NewVerifier(principals repository.PrincipalRepository) *Verifier {
	return &Verifier{Principals: principals, Params: password.Default}
}

// burn gasta el costo de un verify en los caminos que no comparan contra el hash real.
func (v *Verifier) burn(candidate string) {
	if v.dummy != nil {
		v.dummy(candidate)
		return
	}
	password.VerifyDummy(candidate)
}

// Verify retorna el principal o un *Denied (errors.Is contra ErrInvalidCredentials /
// ErrAccountInactive). Errores de storage vuelven envueltos, sin Denied.
func (v *Verifier) Verify(ctx context.Context, tenantID, loginID, candidate string) (*repository.Principal, error) {
	login := repository.NormalizeLogin(loginID)
	if login == "" || tenantID == "" {
		v.burn(candidate)
		return nil, &Denied{Reason: ErrInvalidCredentials}
	}

	p, err := v.Principals.GetByLogin(ctx, tenantID, login)
	if err != nil {
		if repository.IsNotFound(err) {
			v.burn(candidate)
			return nil, &Denied{Reason: ErrInvalidCredentials}
		}
		return nil, fmt.Errorf("lookup principal: %w", err)
	}

	// borrado lógico == no existe
	if p.DeletedAt != nil {
		v.burn(candidate)
		return nil, &Denied{Reason: ErrInvalidCredentials}
	}

	// mismo costo que un login inexistente: inactivo no se distingue por timing
	if p.Active != repository.Active {
		v.burn(candidate)
		return nil, &Denied{Reason: ErrAccountInactive, Principal: p}
	}

	if p.PasswordHash == "" || !password.Verify(candidate, p.PasswordHash) {
		return nil, &Denied{Reason: ErrInvalidCredentials, Principal: p}
	}
	if password.NeedsRehash(p.PasswordHash, v.Params) {
		logger.Scoped(ctx, "service", "credentials", "verify").Debug("password hash below current params",
			logger.TenantID(tenantID), logger.PrincipalID(p.ID))
	}
	return p, nil
}
