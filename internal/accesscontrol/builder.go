package accesscontrol

import (
	"crypto/rsa"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/common"
)

// Builder constructs an AccessControl. Use New for a fresh control and From to
// re-key an existing one for another accessor.
type Builder struct {
	ac AccessControl
}

func New(itemID string) *Builder {
	return &Builder{ac: AccessControl{ItemID: itemID}}
}

// From starts from the item id and decrypted keys of src. Encrypted keys and
// the accessor are not copied since they belong to src's accessor. The read
// key is taken from the modify key when src holds only the latter.
func From(src *AccessControl) *Builder {
	return &Builder{ac: AccessControl{
		ItemID:    src.ItemID,
		ReadKey:   src.readKey(),
		ModifyKey: src.ModifyKey,
	}}
}

func (b *Builder) WithItem(itemID string) *Builder {
	b.ac.ItemID = itemID
	return b
}

func (b *Builder) WithAccessor(accessorID string) *Builder {
	b.ac.AccessorID = accessorID
	return b
}

func (b *Builder) WithReadKey(key *rsa.PublicKey) *Builder {
	b.ac.ReadKey = key
	return b
}

func (b *Builder) WithModifyKey(key *rsa.PrivateKey) *Builder {
	b.ac.ModifyKey = key
	return b
}

// WithPermission keeps the modify key only when p allows modification.
func (b *Builder) WithPermission(p Permission) *Builder {
	if !p.AllowsModify() {
		b.ac.ModifyKey = nil
	}
	return b
}

// Build returns the control. A control with neither key is rejected.
func (b *Builder) Build() (*AccessControl, error) {
	if b.ac.ReadKey == nil && b.ac.ModifyKey == nil {
		return nil, fmt.Errorf("%w: item %s", common.ErrInvalidAccessControl, b.ac.ItemID)
	}
	ac := b.ac
	return &ac, nil
}
