package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid_jwt")

// leeway tolerada en exp/nbf por desfasaje de relojes.
const leeway = 30 * time.Second

// Parse valida firma EdDSA, iss, exp y nbf y devuelve las claims.
func (i *Issuer) Parse(token string) (jwtv5.MapClaims, error) {
	claims := jwtv5.MapClaims{}
	tok, err := jwtv5.ParseWithClaims(token, claims, i.Keyfunc(),
		jwtv5.WithValidMethods([]string{AlgEdDSA}),
		jwtv5.WithIssuer(i.Iss),
		jwtv5.WithLeeway(leeway),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
