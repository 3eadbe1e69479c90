// Package common defines sentinel errors and small helpers shared by every
// layer of the vault. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// ErrCryptographic covers key decode failures, cipher failures and
	// malformed ciphertext.
	ErrCryptographic = errors.New("cryptographic error")

	// ErrKeyFormat is returned when raw bytes cannot be decoded into a key.
	// It matches ErrCryptographic as well.
	ErrKeyFormat = fmt.Errorf("%w: malformed key material", ErrCryptographic)

	// ErrAuthorization means the accessor lacks a required key, or a named
	// accessor could not be resolved.
	ErrAuthorization = errors.New("not authorized")

	// ErrStructural reports an invalid hierarchy operation.
	ErrStructural = errors.New("invalid hierarchy operation")

	// ErrConfiguration reports a malformed stored configuration value.
	ErrConfiguration = errors.New("malformed configuration value")

	// ErrInvalidAccessControl is returned when an access control carries
	// neither a read key nor a modify key.
	ErrInvalidAccessControl = errors.New("access control has no keys")
)
