package cryptox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/common"
)

// ivSize is the IV length required by the access-key cipher.
const ivSize = aes.BlockSize

// Encrypter protects a byte blob. A nil input yields nil output without
// touching the cipher.
type Encrypter interface {
	Encrypt(data []byte) ([]byte, error)
}

// Decrypter reverses an Encrypter bound to the same key and IV. A nil input
// yields nil output.
type Decrypter interface {
	Decrypt(data []byte) ([]byte, error)
}

// cbcCipher is AES-CBC with PKCS#7 padding, bound to one key and one IV.
// Output is deterministic for a given (key, IV, plaintext).
type cbcCipher struct {
	block cipher.Block
	iv    []byte
}

func newCBCCipher(key, iv []byte) (*cbcCipher, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: no key", common.ErrCryptographic)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCryptographic, err)
	}
	if len(iv) != block.BlockSize() {
		return nil, fmt.Errorf("%w: iv of %d bytes", common.ErrCryptographic, len(iv))
	}
	return &cbcCipher{block: block, iv: iv}, nil
}

// NewEncrypter binds an encrypter to key and iv.
func NewEncrypter(key, iv []byte) (Encrypter, error) {
	return newCBCCipher(key, iv)
}

// NewDecrypter binds a decrypter to key and iv.
func NewDecrypter(key, iv []byte) (Decrypter, error) {
	return newCBCCipher(key, iv)
}

// EncrypterFor binds an encrypter to the key held by holder and the IV of the
// object being protected. targetID is the id of that object, not of holder.
func EncrypterFor(holder KeyHolder, targetID string) (Encrypter, error) {
	key, err := holder.AccessKey()
	if err != nil {
		return nil, err
	}
	return NewEncrypter(key, IVFor(targetID, ivSize))
}

// DecrypterFor is the decrypting counterpart of EncrypterFor.
func DecrypterFor(holder KeyHolder, targetID string) (Decrypter, error) {
	key, err := holder.AccessKey()
	if err != nil {
		return nil, err
	}
	return NewDecrypter(key, IVFor(targetID, ivSize))
}

func (c *cbcCipher) Encrypt(data []byte) ([]byte, error) {
	if data == nil {
		return nil, nil
	}
	bs := c.block.BlockSize()
	pad := bs - len(data)%bs
	padded := make([]byte, len(data), len(data)+pad)
	copy(padded, data)
	padded = append(padded, bytes.Repeat([]byte{byte(pad)}, pad)...)

	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, c.iv).CryptBlocks(out, padded)
	return out, nil
}

func (c *cbcCipher) Decrypt(data []byte) ([]byte, error) {
	if data == nil {
		return nil, nil
	}
	bs := c.block.BlockSize()
	if len(data) == 0 || len(data)%bs != 0 {
		return nil, fmt.Errorf("%w: ciphertext of %d bytes", common.ErrCryptographic, len(data))
	}

	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(c.block, c.iv).CryptBlocks(out, data)

	pad := int(out[len(out)-1])
	if pad == 0 || pad > bs {
		return nil, fmt.Errorf("%w: bad padding", common.ErrCryptographic)
	}
	for _, b := range out[len(out)-pad:] {
		if int(b) != pad {
			return nil, fmt.Errorf("%w: bad padding", common.ErrCryptographic)
		}
	}
	return out[:len(out)-pad], nil
}
