package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrKeyFormat_IsCryptographic(t *testing.T) {
	assert.True(t, errors.Is(ErrKeyFormat, ErrCryptographic))
	assert.False(t, errors.Is(ErrCryptographic, ErrKeyFormat))
}

func TestSentinels_AreDistinct(t *testing.T) {
	all := []error{
		ErrorNotFound, ErrorInternal, ErrCryptographic, ErrAuthorization,
		ErrStructural, ErrConfiguration, ErrInvalidAccessControl,
	}
	for i, a := range all {
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Fatalf("%v must not match %v", a, b)
			}
		}
	}
}
