// Package token genera secretos opacos y sus hashes de almacenamiento.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// SecretBytes: 32 bytes de entropía por refresh token / code.
const SecretBytes = 32

// GenerateOpaque genera un token aleatorio en base64url sin padding.
func GenerateOpaque(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Hash es lo que se persiste en lugar del secreto: sha256 en base64url.
func Hash(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Equal compara en tiempo constante.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// S256Challenge calcula el code_challenge PKCE S256 de un verifier.
func S256Challenge(verifier string) string {
	return Hash(verifier)
}
