package cryptox

import (
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/common"
)

// KeyHolder is anything that can produce the symmetric access key of an
// accessor. Encrypters and decrypters are built from a KeyHolder, so callers
// never care whether the key belongs to a user directly or was reached
// through a group membership.
type KeyHolder interface {
	// HolderID is the id of the accessor the key belongs to.
	HolderID() string
	// AccessKey returns the accessor's symmetric key.
	AccessKey() ([]byte, error)
}

// StaticKeyHolder holds an already decrypted access key, typically a user's
// key right after login.
type StaticKeyHolder struct {
	id  string
	key []byte
}

func NewStaticKeyHolder(id string, key []byte) *StaticKeyHolder {
	return &StaticKeyHolder{id: id, key: key}
}

func (h *StaticKeyHolder) HolderID() string { return h.id }

func (h *StaticKeyHolder) AccessKey() ([]byte, error) {
	if len(h.key) == 0 {
		return nil, fmt.Errorf("%w: no access key for %s", common.ErrCryptographic, h.id)
	}
	return h.key, nil
}

// DelegatedKeyHolder holds an access key that is stored sealed under another
// holder's key: a group key sealed for one of its members, or a user key
// sealed for the admin group. The key is unsealed on every call.
type DelegatedKeyHolder struct {
	id     string
	sealed []byte
	via    KeyHolder
}

// NewDelegatedKeyHolder returns a holder for accessor id whose key is sealed
// under via's key, with the IV derived from id.
func NewDelegatedKeyHolder(id string, sealed []byte, via KeyHolder) *DelegatedKeyHolder {
	return &DelegatedKeyHolder{id: id, sealed: sealed, via: via}
}

func (h *DelegatedKeyHolder) HolderID() string { return h.id }

// Via returns the holder whose key unseals this one.
func (h *DelegatedKeyHolder) Via() KeyHolder { return h.via }

func (h *DelegatedKeyHolder) AccessKey() ([]byte, error) {
	if len(h.sealed) == 0 {
		return nil, fmt.Errorf("%w: no sealed key for %s", common.ErrCryptographic, h.id)
	}
	dec, err := DecrypterFor(h.via, h.id)
	if err != nil {
		return nil, err
	}
	raw, err := dec.Decrypt(h.sealed)
	if err != nil {
		return nil, fmt.Errorf("unseal key for %s: %w", h.id, err)
	}
	return BytesToSymmetricKey(raw)
}

// SealAccessKey seals the access key of accessor ownerID under via's key so
// that NewDelegatedKeyHolder(ownerID, sealed, via) can recover it.
func SealAccessKey(via KeyHolder, ownerID string, key []byte) ([]byte, error) {
	enc, err := EncrypterFor(via, ownerID)
	if err != nil {
		return nil, err
	}
	return enc.Encrypt(key)
}
