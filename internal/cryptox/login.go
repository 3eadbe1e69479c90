package cryptox

import (
	"crypto/sha256"

	"golang.org/x/crypto/argon2"
)

// DeriveLoginKey stretches a login password into the key that seals the
// user's access key.
func DeriveLoginKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, AccessKeySize)
}

// MakeVerifier returns the value stored to check a login key without
// storing the key itself.
func MakeVerifier(loginKey []byte) []byte {
	hash := sha256.Sum256(loginKey)
	return hash[:]
}
