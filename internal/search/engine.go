// Package search finds the items a user can read by login name.
package search

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/gophvault/internal/access"
	"github.com/dmitrijs2005/gophvault/internal/accesscontrol"
	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/cryptox"
	"github.com/dmitrijs2005/gophvault/internal/items"
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/models"
	itemrepo "github.com/dmitrijs2005/gophvault/internal/repositories/items"
	"github.com/dmitrijs2005/gophvault/internal/repositories/locations"
)

// Gatherer lists the grants a user can reach.
type Gatherer interface {
	Gather(ctx context.Context, user cryptox.KeyHolder) ([]*access.Grant, error)
}

// PropertyDecrypter opens the properties of an item.
type PropertyDecrypter interface {
	Decrypt(ac *accesscontrol.AccessControl, item *models.Item) (*models.ItemProperties, error)
}

// DecrypterFunc adapts a function to PropertyDecrypter.
type DecrypterFunc func(ac *accesscontrol.AccessControl, item *models.Item) (*models.ItemProperties, error)

func (f DecrypterFunc) Decrypt(ac *accesscontrol.AccessControl, item *models.Item) (*models.ItemProperties, error) {
	return f(ac, item)
}

type Engine struct {
	locations locations.Repository
	items     itemrepo.Repository
	gatherer  Gatherer
	decrypter PropertyDecrypter
	logger    logging.Logger
}

type Option func(*Engine)

// WithDecrypter replaces the property decrypter.
func WithDecrypter(d PropertyDecrypter) Option {
	return func(e *Engine) { e.decrypter = d }
}

func NewEngine(l locations.Repository, i itemrepo.Repository, g Gatherer, logger logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		locations: l,
		items:     i,
		gatherer:  g,
		decrypter: DecrypterFunc(items.Decrypt),
		logger:    logger.With("module", "search"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SearchForIDs returns the sorted ids of items at locationID that user can
// read and whose username is exactly username. Items at other locations are
// dropped before anything is decrypted. A candidate that fails to load or
// decrypt is treated as not matching.
func (e *Engine) SearchForIDs(ctx context.Context, user cryptox.KeyHolder, username, locationID string) ([]string, error) {
	if username == "" {
		return nil, nil
	}

	loc, err := e.locations.GetByID(ctx, locationID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			e.logger.Warn(ctx, "unknown search location", "location_id", locationID)
			return nil, nil
		}
		return nil, fmt.Errorf("load location %s: %w", locationID, err)
	}

	grants, err := e.gatherer.Gather(ctx, user)
	if err != nil {
		return nil, err
	}

	found := map[string]bool{}
	for _, grant := range grants {
		id := grant.ItemID()
		if found[id] {
			continue
		}

		item, err := e.items.GetByID(ctx, id)
		if err != nil {
			e.logger.Warn(ctx, "skipping candidate", "item_id", id, "error", err)
			continue
		}
		if item.LocationID != loc.ID {
			continue
		}

		ac, err := grant.Open()
		if err != nil {
			e.logger.Debug(ctx, "skipping candidate", "item_id", id, "error", err)
			continue
		}
		props, err := e.decrypter.Decrypt(ac, item)
		if err != nil {
			e.logger.Debug(ctx, "skipping candidate", "item_id", id, "error", err)
			continue
		}
		if props.Username == username {
			found[id] = true
		}
	}

	ids := make([]string, 0, len(found))
	for id := range found {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
