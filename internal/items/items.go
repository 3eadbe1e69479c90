// Package items creates vault items and converts between sealed item data
// and ItemProperties.
package items

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/accesscontrol"
	"github.com/dmitrijs2005/gophvault/internal/cryptox"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/google/uuid"
)

// Create builds a new item under parentID with a fresh key pair and props
// sealed into it. The returned access control holds both keys and no
// accessor; it is the reference used to grant access to the item.
func Create(parentID, locationID string, props *models.ItemProperties) (*models.Item, *accesscontrol.AccessControl, error) {
	key, err := cryptox.GenerateKeyPair(cryptox.ItemKeyBits)
	if err != nil {
		return nil, nil, err
	}

	item := &models.Item{
		ID:         uuid.NewString(),
		ParentID:   parentID,
		LocationID: locationID,
		Enabled:    true,
	}
	ref, err := accesscontrol.New(item.ID).WithReadKey(&key.PublicKey).WithModifyKey(key).Build()
	if err != nil {
		return nil, nil, err
	}
	if err := Encrypt(ref, item, props); err != nil {
		return nil, nil, err
	}
	return item, ref, nil
}

// Encrypt replaces item.Data with props sealed by ac. ac must hold the
// modify key.
func Encrypt(ac *accesscontrol.AccessControl, item *models.Item, props *models.ItemProperties) error {
	raw, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("marshal properties of %s: %w", item.ID, err)
	}
	sealed, err := ac.Encrypt(raw)
	if err != nil {
		return err
	}
	item.Data = sealed
	return nil
}

// Decrypt opens item.Data with ac.
func Decrypt(ac *accesscontrol.AccessControl, item *models.Item) (*models.ItemProperties, error) {
	raw, err := ac.Decrypt(item.Data)
	if err != nil {
		return nil, err
	}
	var props models.ItemProperties
	if err := json.Unmarshal(raw, &props); err != nil {
		return nil, fmt.Errorf("unmarshal properties of %s: %w", item.ID, err)
	}
	return &props, nil
}
