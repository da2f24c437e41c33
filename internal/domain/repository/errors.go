package repository

import "errors"

var (
	// ErrNotFound indica que el recurso solicitado no existe.
	ErrNotFound = errors.New("not found")

	// ErrConflict indica un conflicto (duplicado, constraint violation).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indica que los datos de entrada son inválidos.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTokenRevoked: el refresh token fue revocado (logout, cascada).
	ErrTokenRevoked = errors.New("token revoked")

	// ErrTokenReused: el refresh token ya había sido canjeado.
	ErrTokenReused = errors.New("token already used")

	// ErrTokenExpired: el refresh token venció.
	ErrTokenExpired = errors.New("token expired")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }
