package jwt

import (
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Issuer firma JWTs EdDSA con la clave activa del KeySet.
type Issuer struct {
	Iss  string
	Keys *KeySet
}

func NewIssuer(iss string, ks *KeySet) *Issuer {
	return &Issuer{Iss: iss, Keys: ks}
}

// Sign emite un JWT con iss/sub/aud/iat/nbf/exp + claims extra.
// Los extra no pueden pisar los registrados.
func (i *Issuer) Sign(sub, aud string, now time.Time, ttl time.Duration, extra map[string]any) (string, time.Time, error) {
	now = now.UTC()
	exp := now.Add(ttl)

	claims := jwtv5.MapClaims{}
	for k, v := range extra {
		claims[k] = v
	}
	claims["iss"] = i.Iss
	claims["sub"] = sub
	claims["aud"] = aud
	claims["iat"] = now.Unix()
	claims["nbf"] = now.Unix()
	claims["exp"] = exp.Unix()

	kid, priv := i.Keys.Active()
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tk.Header["kid"] = kid
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(priv)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Keyfunc elige la pública por 'kid'. Sin kid no verificamos nada.
func (i *Issuer) Keyfunc() jwtv5.Keyfunc {
	return func(t *jwtv5.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return i.Keys.PublicKeyByKID(kid)
	}
}
