package utils

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Supported password schemes.  SchemeSHA256 is the legacy unsalted digest
// that existing rows were written with; SchemeBcrypt produces salted hashes.
const (
	SchemeSHA256 = "sha256"
	SchemeBcrypt = "bcrypt"
)

// HashPassword returns the hex encoded SHA‑256 digest of the UTF‑8 password.
// The digest is deterministic: equal passwords yield equal digests.
func HashPassword(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// HashPasswordWith hashes plain using the named scheme.  Unknown schemes fall
// back to SHA‑256 so a typo in configuration never blocks registration.
func HashPasswordWith(scheme, plain string, cost int) (string, error) {
	if strings.EqualFold(scheme, SchemeBcrypt) {
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			cost = bcrypt.DefaultCost
		}
		b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return HashPassword(plain), nil
}

// VerifyPassword reports whether plain matches the stored hash.  bcrypt hashes
// are recognised by their "$2" prefix; anything else is treated as a SHA‑256
// hex digest and compared in constant time.
func VerifyPassword(stored, plain string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)) == nil
	}
	want := HashPassword(plain)
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(stored)), []byte(want)) == 1
}
