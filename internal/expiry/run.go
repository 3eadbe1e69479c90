package expiry

import (
	"context"

	"github.com/dmitrijs2005/gophvault/internal/access"
	"github.com/dmitrijs2005/gophvault/internal/cryptox"
	"github.com/dmitrijs2005/gophvault/internal/items"
	itemrepo "github.com/dmitrijs2005/gophvault/internal/repositories/items"
)

// Gatherer lists the grants a user can reach.
type Gatherer interface {
	Gather(ctx context.Context, user cryptox.KeyHolder) ([]*access.Grant, error)
}

// Run feeds every item user can read into s. An item that cannot be loaded
// or decrypted through one grant is retried through the next grant on the
// same item, and skipped when none works.
func Run(ctx context.Context, s *Scanner, g Gatherer, repo itemrepo.Repository, user cryptox.KeyHolder) error {
	grants, err := g.Gather(ctx, user)
	if err != nil {
		return err
	}

	done := map[string]bool{}
	for _, grant := range grants {
		id := grant.ItemID()
		if done[id] {
			continue
		}
		log := s.logger.With("item_id", id, "accessor", grant.Holder.HolderID())

		item, err := repo.GetByID(ctx, id)
		if err != nil {
			log.Warn(ctx, "skipping item", "error", err)
			continue
		}
		ac, err := grant.Open()
		if err != nil {
			log.Warn(ctx, "skipping item", "error", err)
			continue
		}
		props, err := items.Decrypt(ac, item)
		if err != nil {
			log.Warn(ctx, "skipping item", "error", err)
			continue
		}
		if err := s.Process(ctx, item, props); err != nil {
			log.Warn(ctx, "skipping item", "error", err)
			continue
		}
		done[id] = true
	}
	return nil
}
