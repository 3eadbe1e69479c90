package items

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/accesscontrol"
	"github.com/dmitrijs2005/gophvault/internal/cryptox"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/dmitrijs2005/gophvault/internal/repositories/accesscontrols"
	itemrepo "github.com/dmitrijs2005/gophvault/internal/repositories/items"
)

// Service stores new items together with their first access controls.
type Service struct {
	items    itemrepo.Repository
	userACs  accesscontrols.Repository
	groupACs accesscontrols.Repository
}

func NewService(i itemrepo.Repository, userACs, groupACs accesscontrols.Repository) *Service {
	return &Service{items: i, userACs: userACs, groupACs: groupACs}
}

// Add creates an item and grants full access to creator and to adminGroup.
// It returns the item and its reference access control.
func (s *Service) Add(ctx context.Context, creator, adminGroup cryptox.KeyHolder, parentID, locationID string,
	props *models.ItemProperties) (*models.Item, *accesscontrol.AccessControl, error) {

	item, ref, err := Create(parentID, locationID, props)
	if err != nil {
		return nil, nil, err
	}
	if err := s.items.Store(ctx, item); err != nil {
		return nil, nil, err
	}

	if err := grant(ctx, s.userACs, ref, creator); err != nil {
		return nil, nil, fmt.Errorf("grant creator: %w", err)
	}
	if err := grant(ctx, s.groupACs, ref, adminGroup); err != nil {
		return nil, nil, fmt.Errorf("grant admin group: %w", err)
	}
	return item, ref, nil
}

// Delete removes an item together with every user and group access control
// on it. Callers run it on repositories bound to one transaction when a
// partial delete must not be left behind.
func (s *Service) Delete(ctx context.Context, itemID string) error {
	if err := s.userACs.DeleteAllForItem(ctx, itemID); err != nil {
		return fmt.Errorf("revoke user access to %s: %w", itemID, err)
	}
	if err := s.groupACs.DeleteAllForItem(ctx, itemID); err != nil {
		return fmt.Errorf("revoke group access to %s: %w", itemID, err)
	}
	if err := s.items.Delete(ctx, itemID); err != nil {
		return fmt.Errorf("delete item %s: %w", itemID, err)
	}
	return nil
}

func grant(ctx context.Context, repo accesscontrols.Repository, ref *accesscontrol.AccessControl, holder cryptox.KeyHolder) error {
	ac, err := accesscontrol.From(ref).WithAccessor(holder.HolderID()).Build()
	if err != nil {
		return err
	}
	if err := ac.SealFor(holder); err != nil {
		return err
	}
	rec, err := ac.Record()
	if err != nil {
		return err
	}
	return repo.Write(ctx, holder.HolderID(), rec)
}
