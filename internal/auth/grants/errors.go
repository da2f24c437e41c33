package grants

import (
	"errors"
	"net/http"

	"github.com/dropDatabas3/hellodesk/internal/auth/credentials"
	"github.com/dropDatabas3/hellodesk/internal/auth/refresh"
)

// Taxonomía de fallos de un grant. Las que vienen de otros paquetes son el
// mismo valor, así errors.Is funciona de punta a punta.
var (
	ErrInvalidCredentials = credentials.ErrInvalidCredentials
	ErrAccountInactive    = credentials.ErrAccountInactive
	ErrTokenReused        = refresh.ErrReused
	ErrTokenExpired       = refresh.ErrExpired
	ErrTokenNotFound      = refresh.ErrNotFound
	ErrTokenRevoked       = refresh.ErrRevoked

	ErrUnknownClient    = errors.New("unknown client")
	ErrUnsupportedGrant = errors.New("unsupported grant type")
	ErrInvalidCode      = errors.New("invalid authorization code")
	ErrInvalidRequest   = errors.New("invalid request")
)

// Códigos OAuth de wire.
const (
	CodeInvalidGrant         = "invalid_grant"
	CodeInvalidClient        = "invalid_client"
	CodeUnsupportedGrantType = "unsupported_grant_type"
	CodeServerError          = "server_error"
)

const invalidGrantDescription = "the provided grant is invalid, expired or revoked"

var taxonomy = []error{
	ErrInvalidCredentials, ErrAccountInactive,
	ErrTokenReused, ErrTokenExpired, ErrTokenNotFound, ErrTokenRevoked,
	ErrInvalidCode, ErrInvalidRequest,
}

// Public es la forma externa de un error.
type Public struct {
	Status      int
	Code        string
	Description string
}

// PublicError colapsa la taxonomía: solo client desconocido y grant no
// soportado tienen respuesta propia; el resto es el mismo invalid_grant.
// Cualquier otro error es server_error.
func PublicError(err error) Public {
	switch {
	case errors.Is(err, ErrUnknownClient):
		return Public{http.StatusUnauthorized, CodeInvalidClient, "client authentication failed"}
	case errors.Is(err, ErrUnsupportedGrant):
		return Public{http.StatusBadRequest, CodeUnsupportedGrantType, "grant type not supported for this client"}
	}
	if IsDenial(err) {
		return Public{http.StatusBadRequest, CodeInvalidGrant, invalidGrantDescription}
	}
	return Public{http.StatusInternalServerError, CodeServerError, "internal error"}
}

// IsDenial: el error es un rechazo del grant (no una falla de infraestructura).
func IsDenial(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnknownClient) || errors.Is(err, ErrUnsupportedGrant) {
		return true
	}
	for _, e := range taxonomy {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
