// Package cryptox converts raw key material to typed keys and provides the
// ciphers used to protect that material for each accessor.
package cryptox

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/common"
)

const (
	// ItemKeyBits is the RSA modulus size of a freshly generated item key pair.
	ItemKeyBits = 2048

	// AccessKeySize is the length in bytes of an accessor's symmetric key.
	AccessKeySize = 32
)

// IVFor derives an n-byte initialisation vector from uniqueID. SHA-256 is
// applied to the id, then repeatedly to the previous digest, and the digests
// are concatenated until n bytes are available.
func IVFor(uniqueID string, n int) []byte {
	out := make([]byte, 0, n+sha256.Size)
	buf := []byte(uniqueID)
	for len(out) < n {
		digest := sha256.Sum256(buf)
		out = append(out, digest[:]...)
		buf = digest[:]
	}
	return out[:n]
}

// GenerateKeyPair creates a new item key pair. The private half is the modify
// key and the public half is the read key.
func GenerateKeyPair(bits int) (*rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("%w: generate key pair: %v", common.ErrCryptographic, err)
	}
	return key, nil
}

// GenerateAccessKey returns a random symmetric key for a user or group.
func GenerateAccessKey() []byte {
	return common.GenerateRandByteArray(AccessKeySize)
}

// EncodePublicKey returns the PKIX DER form of key.
func EncodePublicKey(key *rsa.PublicKey) ([]byte, error) {
	b, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: encode public key: %v", common.ErrCryptographic, err)
	}
	return b, nil
}

// EncodePrivateKey returns the PKCS#8 DER form of key.
func EncodePrivateKey(key *rsa.PrivateKey) ([]byte, error) {
	b, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: encode private key: %v", common.ErrCryptographic, err)
	}
	return b, nil
}

// BytesToPublicKey decodes a PKIX DER RSA public key.
func BytesToPublicKey(b []byte) (*rsa.PublicKey, error) {
	parsed, err := x509.ParsePKIXPublicKey(b)
	if err != nil {
		return nil, fmt.Errorf("%w: public key: %v", common.ErrKeyFormat, err)
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: public key is %T, not RSA", common.ErrKeyFormat, parsed)
	}
	return key, nil
}

// BytesToPrivateKey decodes a PKCS#8 DER RSA private key.
func BytesToPrivateKey(b []byte) (*rsa.PrivateKey, error) {
	parsed, err := x509.ParsePKCS8PrivateKey(b)
	if err != nil {
		return nil, fmt.Errorf("%w: private key: %v", common.ErrKeyFormat, err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: private key is %T, not RSA", common.ErrKeyFormat, parsed)
	}
	return key, nil
}

// BytesToSymmetricKey validates b as an AES key and returns a copy of it.
func BytesToSymmetricKey(b []byte) ([]byte, error) {
	switch len(b) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: symmetric key of %d bytes", common.ErrKeyFormat, len(b))
	}
	key := make([]byte, len(b))
	copy(key, b)
	return key, nil
}
