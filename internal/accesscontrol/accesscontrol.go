// Package accesscontrol models an accessor's view of an item's key pair.
//
// An AccessControl moves through these states:
//
//	in-memory keys -> EncryptKeys -> ciphertext -> store -> persisted
//	persisted -> DecryptKeys -> in-memory keys
//
// There is no update in place. Changing a grant means deleting the stored
// record and writing a new one.
package accesscontrol

import (
	"crypto/rsa"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/cryptox"
	"github.com/dmitrijs2005/gophvault/internal/models"
)

// AccessControl binds one accessor to one item. ReadKey is the item's public
// key and ModifyKey its private key. A nil ModifyKey is a read-only grant.
type AccessControl struct {
	ItemID     string
	AccessorID string

	ReadKey   *rsa.PublicKey
	ModifyKey *rsa.PrivateKey

	EncryptedReadKey   []byte
	EncryptedModifyKey []byte
}

// CanRead reports whether ac can open item data.
func (ac *AccessControl) CanRead() bool {
	return ac.readKey() != nil
}

// CanModify reports whether ac can seal item data.
func (ac *AccessControl) CanModify() bool {
	return ac.ModifyKey != nil
}

func (ac *AccessControl) readKey() *rsa.PublicKey {
	if ac.ReadKey != nil {
		return ac.ReadKey
	}
	if ac.ModifyKey != nil {
		return &ac.ModifyKey.PublicKey
	}
	return nil
}

// EncryptKeys encodes the in-memory keys and encrypts each of them with enc.
// An absent key yields absent ciphertext.
func (ac *AccessControl) EncryptKeys(enc cryptox.Encrypter) error {
	var readBytes, modifyBytes []byte
	var err error

	if ac.ReadKey != nil {
		if readBytes, err = cryptox.EncodePublicKey(ac.ReadKey); err != nil {
			return err
		}
	}
	if ac.ModifyKey != nil {
		if modifyBytes, err = cryptox.EncodePrivateKey(ac.ModifyKey); err != nil {
			return err
		}
		defer common.WipeByteArray(modifyBytes)
	}

	encRead, err := enc.Encrypt(readBytes)
	if err != nil {
		return fmt.Errorf("encrypt read key: %w", err)
	}
	encModify, err := enc.Encrypt(modifyBytes)
	if err != nil {
		return fmt.Errorf("encrypt modify key: %w", err)
	}

	ac.EncryptedReadKey = encRead
	ac.EncryptedModifyKey = encModify
	return nil
}

// DecryptKeys is the inverse of EncryptKeys. It replaces the in-memory keys
// with the decoded ciphertext; absent ciphertext yields a nil key.
func (ac *AccessControl) DecryptKeys(dec cryptox.Decrypter) error {
	var readKey *rsa.PublicKey
	var modifyKey *rsa.PrivateKey

	readBytes, err := dec.Decrypt(nonEmpty(ac.EncryptedReadKey))
	if err != nil {
		return fmt.Errorf("decrypt read key of %s: %w", ac.ItemID, err)
	}
	if readBytes != nil {
		if readKey, err = cryptox.BytesToPublicKey(readBytes); err != nil {
			return err
		}
	}

	modifyBytes, err := dec.Decrypt(nonEmpty(ac.EncryptedModifyKey))
	if err != nil {
		return fmt.Errorf("decrypt modify key of %s: %w", ac.ItemID, err)
	}
	if modifyBytes != nil {
		defer common.WipeByteArray(modifyBytes)
		if modifyKey, err = cryptox.BytesToPrivateKey(modifyBytes); err != nil {
			return err
		}
	}

	ac.ReadKey = readKey
	ac.ModifyKey = modifyKey
	return nil
}

// SealFor encrypts the keys of ac for holder. The IV comes from the item id.
func (ac *AccessControl) SealFor(holder cryptox.KeyHolder) error {
	enc, err := cryptox.EncrypterFor(holder, ac.ItemID)
	if err != nil {
		return err
	}
	return ac.EncryptKeys(enc)
}

// OpenWith decrypts the keys of ac with the key of holder.
func (ac *AccessControl) OpenWith(holder cryptox.KeyHolder) error {
	dec, err := cryptox.DecrypterFor(holder, ac.ItemID)
	if err != nil {
		return err
	}
	return ac.DecryptKeys(dec)
}

// Encrypt seals item data. It needs the modify key.
func (ac *AccessControl) Encrypt(data []byte) ([]byte, error) {
	if ac.ModifyKey == nil {
		return nil, fmt.Errorf("%w: read-only access to %s", common.ErrAuthorization, ac.ItemID)
	}
	return cryptox.Seal(ac.ModifyKey, data)
}

// Decrypt opens item data. It needs the read key.
func (ac *AccessControl) Decrypt(data []byte) ([]byte, error) {
	key := ac.readKey()
	if key == nil {
		return nil, fmt.Errorf("%w: no read access to %s", common.ErrAuthorization, ac.ItemID)
	}
	return cryptox.Open(key, data)
}

// Record returns the persistable form of ac. EncryptKeys must have been
// called first.
func (ac *AccessControl) Record() (*models.AccessControlRecord, error) {
	rec := &models.AccessControlRecord{
		ItemID:             ac.ItemID,
		AccessorID:         ac.AccessorID,
		EncryptedReadKey:   ac.EncryptedReadKey,
		EncryptedModifyKey: ac.EncryptedModifyKey,
	}
	if !rec.HasKeys() {
		return nil, fmt.Errorf("%w: item %s accessor %s", common.ErrInvalidAccessControl, ac.ItemID, ac.AccessorID)
	}
	return rec, nil
}

// FromRecord wraps a stored record. The keys stay encrypted until
// DecryptKeys or OpenWith is called.
func FromRecord(rec *models.AccessControlRecord) *AccessControl {
	return &AccessControl{
		ItemID:             rec.ItemID,
		AccessorID:         rec.AccessorID,
		EncryptedReadKey:   rec.EncryptedReadKey,
		EncryptedModifyKey: rec.EncryptedModifyKey,
	}
}

// Compare orders controls by item id, then by modify key presence, then by
// read key presence. An absent key sorts before a present one. Key material
// itself is never compared.
func Compare(a, b *AccessControl) int {
	if c := strings.Compare(a.ItemID, b.ItemID); c != 0 {
		return c
	}
	if c := presence(a.ModifyKey != nil, b.ModifyKey != nil); c != 0 {
		return c
	}
	return presence(a.ReadKey != nil, b.ReadKey != nil)
}

func presence(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// nonEmpty maps an empty blob to nil so the decrypter treats it as absent.
func nonEmpty(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
