package cryptox

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipher_RoundTripAndDeterminism(t *testing.T) {
	key := GenerateAccessKey()
	iv := IVFor("item-1", ivSize)

	enc, err := NewEncrypter(key, iv)
	require.NoError(t, err)
	dec, err := NewDecrypter(key, iv)
	require.NoError(t, err)

	for _, plain := range [][]byte{{}, []byte("a"), make([]byte, 16), []byte("a longer secret value spanning blocks")} {
		c1, err := enc.Encrypt(plain)
		require.NoError(t, err)
		c2, err := enc.Encrypt(plain)
		require.NoError(t, err)
		assert.Equal(t, c1, c2, "same key, iv and plaintext must give the same ciphertext")

		got, err := dec.Decrypt(c1)
		require.NoError(t, err)
		assert.Equal(t, plain, got)
	}
}

func TestCipher_NilPassesThrough(t *testing.T) {
	key := GenerateAccessKey()
	enc, err := NewEncrypter(key, IVFor("x", ivSize))
	require.NoError(t, err)
	dec, err := NewDecrypter(key, IVFor("x", ivSize))
	require.NoError(t, err)

	out, err := enc.Encrypt(nil)
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = dec.Decrypt(nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestCipher_IVDependsOnTarget(t *testing.T) {
	holder := NewStaticKeyHolder("u1", GenerateAccessKey())

	e1, err := EncrypterFor(holder, "item-1")
	require.NoError(t, err)
	e2, err := EncrypterFor(holder, "item-2")
	require.NoError(t, err)

	c1, _ := e1.Encrypt([]byte("same"))
	c2, _ := e2.Encrypt([]byte("same"))
	assert.NotEqual(t, c1, c2)
}

func TestCipher_InvalidKey(t *testing.T) {
	_, err := NewEncrypter(nil, IVFor("x", ivSize))
	assert.True(t, errors.Is(err, common.ErrCryptographic))

	_, err = NewEncrypter(make([]byte, 7), IVFor("x", ivSize))
	assert.True(t, errors.Is(err, common.ErrCryptographic))

	_, err = EncrypterFor(NewStaticKeyHolder("u", nil), "item")
	assert.True(t, errors.Is(err, common.ErrCryptographic))
}

func TestCipher_MalformedCiphertext(t *testing.T) {
	key := GenerateAccessKey()
	dec, err := NewDecrypter(key, IVFor("x", ivSize))
	require.NoError(t, err)

	_, err = dec.Decrypt([]byte("short"))
	assert.True(t, errors.Is(err, common.ErrCryptographic))

	_, err = dec.Decrypt([]byte{})
	assert.True(t, errors.Is(err, common.ErrCryptographic))
}

func TestCipher_WrongKeyFails(t *testing.T) {
	iv := IVFor("item", ivSize)
	enc, _ := NewEncrypter(GenerateAccessKey(), iv)
	dec, _ := NewDecrypter(GenerateAccessKey(), iv)

	sealed, err := enc.Encrypt([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	got, err := dec.Decrypt(sealed)
	if err == nil {
		assert.NotEqual(t, []byte("0123456789abcdef0123456789abcdef"), got)
	}
}
