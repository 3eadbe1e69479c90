package models

// AccessControlRecord is the persisted form of an access control: the item's
// key pair encrypted for one accessor. EncryptedModifyKey is nil for read-only
// grants.
type AccessControlRecord struct {
	ItemID             string
	AccessorID         string
	EncryptedReadKey   []byte
	EncryptedModifyKey []byte
}

// HasKeys reports whether r carries at least one key.
func (r *AccessControlRecord) HasKeys() bool {
	return len(r.EncryptedReadKey) > 0 || len(r.EncryptedModifyKey) > 0
}
