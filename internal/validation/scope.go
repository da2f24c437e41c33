// Package validation valida nombres que vienen de configuración.
package validation

import (
	"errors"
	"fmt"
	"regexp"
)

// Un scope: minúsculas, empieza y termina alfanumérico, en el medio también
// ":" "_" "." "-", hasta 64 caracteres. Ej: openid, ticket:read.
var scopeNameRe = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9:_.-]{0,62}[a-z0-9])?$`)

var ErrInvalidScope = errors.New("invalid scope name")

// ValidScopeName reporta si name es un nombre de scope aceptable.
func ValidScopeName(name string) bool {
	return scopeNameRe.MatchString(name)
}

// Scopes valida una lista completa y reporta todos los inválidos juntos.
func Scopes(names []string) error {
	var errs []error
	for _, n := range names {
		if !ValidScopeName(n) {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidScope, n))
		}
	}
	return errors.Join(errs...)
}
