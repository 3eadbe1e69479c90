package integration

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/accesscontrol"
	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/items"
	itemrepo "github.com/dmitrijs2005/gophvault/internal/repositories/items"
	"github.com/dmitrijs2005/gophvault/internal/repositories/locations"
)

// Rotator changes the password of an item's account on its system and then
// records the new password in the item.
type Rotator struct {
	registry  *Registry
	locations locations.Repository
	items     itemrepo.Repository
}

func NewRotator(r *Registry, l locations.Repository, i itemrepo.Repository) *Rotator {
	return &Rotator{registry: r, locations: l, items: i}
}

// Rotate runs the changer of the item's location. The item is only rewritten
// once the changer has succeeded. ac must hold the item's modify key.
func (r *Rotator) Rotate(ctx context.Context, ac *accesscontrol.AccessControl, newPassword string) error {
	if !ac.CanModify() {
		return fmt.Errorf("%w: item %s is read only", common.ErrAuthorization, ac.ItemID)
	}

	item, err := r.items.GetByID(ctx, ac.ItemID)
	if err != nil {
		return fmt.Errorf("load item %s: %w", ac.ItemID, err)
	}
	props, err := items.Decrypt(ac, item)
	if err != nil {
		return err
	}
	loc, err := r.locations.GetByID(ctx, item.LocationID)
	if err != nil {
		return fmt.Errorf("location of %s: %w", item.ID, err)
	}
	changer, err := r.registry.ForLocation(loc)
	if err != nil {
		return err
	}

	if err := changer.ChangePassword(ctx, item, props, newPassword); err != nil {
		return fmt.Errorf("change password of %s: %w", item.ID, err)
	}

	props.Password = newPassword
	if err := items.Encrypt(ac, item, props); err != nil {
		return err
	}
	return r.items.Store(ctx, item)
}
