package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

const AlgEdDSA = "EdDSA"

var ErrUnknownKID = errors.New("unknown kid")

// KeySet tiene una clave activa (firma) y claves retiradas que solo verifican.
type KeySet struct {
	mu       sync.RWMutex
	kid      string
	priv     ed25519.PrivateKey
	verifier map[string]ed25519.PublicKey
	order    []string // activa primero, para el JWKS
}

// NewEd25519FromSeed arma la clave activa a partir de un seed de 32 bytes.
func NewEd25519FromSeed(kid string, seed []byte) (*KeySet, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("signing key seed: want %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	if kid == "" {
		return nil, errors.New("signing key: empty kid")
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &KeySet{
		kid:      kid,
		priv:     priv,
		verifier: map[string]ed25519.PublicKey{kid: priv.Public().(ed25519.PublicKey)},
		order:    []string{kid},
	}, nil
}

// NewEd25519FromBase64Seed es el formato de config/env (std o url base64).
func NewEd25519FromBase64Seed(kid, b64 string) (*KeySet, error) {
	seed, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		if seed, err = base64.RawURLEncoding.DecodeString(b64); err != nil {
			return nil, fmt.Errorf("signing key seed: %w", err)
		}
	}
	return NewEd25519FromSeed(kid, seed)
}

// NewDevEd25519 genera una clave efímera en memoria. Los tokens mueren con el proceso.
func NewDevEd25519(kid string) (*KeySet, error) {
	seed, err := GenerateSeed()
	if err != nil {
		return nil, err
	}
	return NewEd25519FromSeed(kid, seed)
}

// GenerateSeed devuelve 32 bytes aleatorios.
func GenerateSeed() ([]byte, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	return seed, nil
}

// AddRetiring publica una clave vieja solo para verificación (ventana de rotación).
func (k *KeySet) AddRetiring(kid string, pub ed25519.PublicKey) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, ok := k.verifier[kid]; !ok {
		k.order = append(k.order, kid)
	}
	k.verifier[kid] = pub
}

// Active retorna kid + privada de firma.
func (k *KeySet) Active() (string, ed25519.PrivateKey) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.kid, k.priv
}

func (k *KeySet) PublicKeyByKID(kid string) (ed25519.PublicKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	pub, ok := k.verifier[kid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKID, kid)
	}
	return pub, nil
}

// ----- JWKS -----

type jwk struct {
	Kty string `json:"kty"` // "OKP"
	Crv string `json:"crv"` // "Ed25519"
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	X   string `json:"x"` // base64url(pub)
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

// JWKSJSON devuelve las públicas (activa + retiradas) en formato JWKS.
func (k *KeySet) JWKSJSON() []byte {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := jwks{Keys: make([]jwk, 0, len(k.order))}
	for _, kid := range k.order {
		out.Keys = append(out.Keys, jwk{
			Kty: "OKP",
			Crv: "Ed25519",
			Kid: kid,
			Alg: AlgEdDSA,
			Use: "sig",
			X:   base64.RawURLEncoding.EncodeToString(k.verifier[kid]),
		})
	}
	b, _ := json.Marshal(out)
	return b
}
