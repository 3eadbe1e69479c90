package cryptox

import (
	"crypto/rsa"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

func itemKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		k, err := GenerateKeyPair(ItemKeyBits)
		if err != nil {
			panic(err)
		}
		testKey = k
	})
	return testKey
}

func TestIVFor_DeterministicAndSized(t *testing.T) {
	for _, n := range []int{1, 12, 16, 32, 33, 100} {
		a := IVFor("item-42", n)
		b := IVFor("item-42", n)
		assert.Len(t, a, n)
		assert.Equal(t, a, b)
	}
}

func TestIVFor_DistinctIDs(t *testing.T) {
	assert.NotEqual(t, IVFor("item-1", 16), IVFor("item-2", 16))
	assert.NotEqual(t, IVFor("", 16), IVFor("x", 16))
}

func TestIVFor_PrefixStable(t *testing.T) {
	long := IVFor("node", 64)
	assert.Equal(t, IVFor("node", 16), long[:16])
}

func TestKeyCodec_RoundTrip(t *testing.T) {
	key := itemKey(t)

	pubBytes, err := EncodePublicKey(&key.PublicKey)
	require.NoError(t, err)
	pub, err := BytesToPublicKey(pubBytes)
	require.NoError(t, err)
	assert.True(t, key.PublicKey.Equal(pub))

	privBytes, err := EncodePrivateKey(key)
	require.NoError(t, err)
	priv, err := BytesToPrivateKey(privBytes)
	require.NoError(t, err)
	assert.True(t, key.Equal(priv))
}

func TestKeyCodec_Malformed(t *testing.T) {
	_, err := BytesToPublicKey([]byte("garbage"))
	assert.True(t, errors.Is(err, common.ErrKeyFormat))
	assert.True(t, errors.Is(err, common.ErrCryptographic))

	_, err = BytesToPrivateKey(nil)
	assert.True(t, errors.Is(err, common.ErrKeyFormat))

	_, err = BytesToSymmetricKey(make([]byte, 15))
	assert.True(t, errors.Is(err, common.ErrKeyFormat))
}

func TestBytesToSymmetricKey_Copies(t *testing.T) {
	raw := GenerateAccessKey()
	key, err := BytesToSymmetricKey(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, key)

	raw[0] ^= 0xff
	assert.NotEqual(t, raw, key)
}
