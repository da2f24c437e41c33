package password

import (
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Verify compara plain contra un hash almacenado.
// Soporta argon2id (PHC, lo que emite Hash) y bcrypt ($2a$/$2b$/$2y$, cuentas migradas).
// Cualquier hash desconocido o corrupto da false.
func Verify(plain, encoded string) bool {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return verifyArgon2id(plain, encoded)
	case isBcrypt(encoded):
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plain)) == nil
	default:
		return false
	}
}

func isBcrypt(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// VerifyDummy gasta el mismo tiempo que un Verify real.
// Se usa cuando el login no existe, para no filtrar qué cuentas existen por timing.
func VerifyDummy(plain string) {
	dummyOnce.Do(func() {
		h, err := Hash(Default, "hellodesk-dummy-password")
		if err == nil {
			dummyHash = h
		}
	})
	if dummyHash != "" {
		_ = verifyArgon2id(plain, dummyHash)
	}
}

// NeedsRehash indica si conviene re-hashear con los parámetros actuales
// (bcrypt legado o argon2id con parámetros más débiles).
func NeedsRehash(encoded string, p Params) bool {
	if isBcrypt(encoded) {
		return true
	}
	h, err := parseArgon2id(encoded)
	if err != nil {
		return true
	}
	return h.params.Memory < p.Memory || h.params.Time < p.Time
}
