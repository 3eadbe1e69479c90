package cryptox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveLoginKey(t *testing.T) {
	a := DeriveLoginKey([]byte("pw"), []byte("salt-1"))
	b := DeriveLoginKey([]byte("pw"), []byte("salt-1"))
	c := DeriveLoginKey([]byte("pw"), []byte("salt-2"))

	assert.Len(t, a, AccessKeySize)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestMakeVerifier(t *testing.T) {
	key := DeriveLoginKey([]byte("pw"), []byte("salt"))
	assert.Equal(t, MakeVerifier(key), MakeVerifier(key))
	assert.NotEqual(t, key, MakeVerifier(key))
}
