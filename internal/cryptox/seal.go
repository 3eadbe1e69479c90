package cryptox

import (
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"math/big"

	"github.com/dmitrijs2005/gophvault/internal/common"
)

const (
	// dataKeySize is the AES key generated for every sealed blob.
	dataKeySize = 16
	nonceSize   = 12
	// minPadding is the minimum run of 0xFF bytes in a PKCS#1 v1.5 type 1 block.
	minPadding = 8
)

// Seal encrypts plaintext so that only holders of the matching read key can
// recover it, and only holders of modifyKey can produce it.
//
// A fresh AES-128 key encrypts the data with GCM. That key is then wrapped
// with a raw private-key operation (PKCS#1 v1.5 type 1 padding). Layout:
//
//	wrapped key (modulus size) | nonce (12) | AES-GCM ciphertext
func Seal(modifyKey *rsa.PrivateKey, plaintext []byte) ([]byte, error) {
	if modifyKey == nil {
		return nil, fmt.Errorf("%w: no modify key", common.ErrAuthorization)
	}

	dataKey := common.GenerateRandByteArray(dataKeySize)
	defer common.WipeByteArray(dataKey)

	wrapped, err := rsa.SignPKCS1v15(rand.Reader, modifyKey, crypto.Hash(0), dataKey)
	if err != nil {
		return nil, fmt.Errorf("%w: wrap data key: %v", common.ErrCryptographic, err)
	}

	aesgcm, err := newGCM(dataKey)
	if err != nil {
		return nil, err
	}
	nonce := common.GenerateRandByteArray(nonceSize)

	out := make([]byte, 0, len(wrapped)+nonceSize+len(plaintext)+aesgcm.Overhead())
	out = append(out, wrapped...)
	out = append(out, nonce...)
	return aesgcm.Seal(out, nonce, plaintext, nil), nil
}

// Open reverses Seal using the public read key.
func Open(readKey *rsa.PublicKey, sealed []byte) ([]byte, error) {
	if readKey == nil {
		return nil, fmt.Errorf("%w: no read key", common.ErrAuthorization)
	}

	k := readKey.Size()
	if len(sealed) < k+nonceSize {
		return nil, fmt.Errorf("%w: sealed data too short", common.ErrCryptographic)
	}

	dataKey, err := unwrapPublic(readKey, sealed[:k])
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(dataKey)

	aesgcm, err := newGCM(dataKey)
	if err != nil {
		return nil, err
	}
	nonce := sealed[k : k+nonceSize]
	plaintext, err := aesgcm.Open(nil, nonce, sealed[k+nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCryptographic, err)
	}
	return plaintext, nil
}

// unwrapPublic applies the public exponent to block and strips the type 1
// padding written by rsa.SignPKCS1v15 with a zero hash.
func unwrapPublic(pub *rsa.PublicKey, block []byte) ([]byte, error) {
	c := new(big.Int).SetBytes(block)
	if c.Cmp(pub.N) >= 0 {
		return nil, fmt.Errorf("%w: wrapped key out of range", common.ErrCryptographic)
	}
	m := new(big.Int).Exp(c, big.NewInt(int64(pub.E)), pub.N)
	em := m.FillBytes(make([]byte, pub.Size()))

	if em[0] != 0x00 || em[1] != 0x01 {
		return nil, fmt.Errorf("%w: bad wrapped key header", common.ErrCryptographic)
	}
	i := 2
	for i < len(em) && em[i] == 0xff {
		i++
	}
	if i-2 < minPadding || i >= len(em) || em[i] != 0x00 {
		return nil, fmt.Errorf("%w: bad wrapped key padding", common.ErrCryptographic)
	}
	key := em[i+1:]
	if len(key) != dataKeySize {
		return nil, fmt.Errorf("%w: wrapped key of %d bytes", common.ErrCryptographic, len(key))
	}
	return key, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCryptographic, err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCryptographic, err)
	}
	return aesgcm, nil
}
