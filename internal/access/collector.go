// Package access gathers every access control a user can reach, directly or
// through group membership.
package access

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/accesscontrol"
	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/cryptox"
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/dmitrijs2005/gophvault/internal/repositories/accesscontrols"
)

// Grant is a stored access control together with the key holder able to
// decrypt it. Nothing is decrypted until Open is called.
type Grant struct {
	Record *models.AccessControlRecord
	Holder cryptox.KeyHolder
}

func (g *Grant) ItemID() string {
	return g.Record.ItemID
}

// ViaGroup reports whether the grant was reached through a group.
func (g *Grant) ViaGroup(user cryptox.KeyHolder) bool {
	return g.Holder.HolderID() != user.HolderID()
}

// Open decrypts the item keys of the grant.
func (g *Grant) Open() (*accesscontrol.AccessControl, error) {
	ac := accesscontrol.FromRecord(g.Record)
	if err := ac.OpenWith(g.Holder); err != nil {
		return nil, err
	}
	return ac, nil
}

// GroupLister returns the key holders of the groups a user belongs to.
type GroupLister interface {
	GroupsForUser(ctx context.Context, user cryptox.KeyHolder) ([]cryptox.KeyHolder, error)
}

type Collector struct {
	userACs  accesscontrols.Repository
	groupACs accesscontrols.Repository
	groups   GroupLister
	logger   logging.Logger
}

func NewCollector(userACs, groupACs accesscontrols.Repository, groups GroupLister, l logging.Logger) *Collector {
	return &Collector{userACs: userACs, groupACs: groupACs, groups: groups, logger: l.With("module", "access")}
}

// Gather returns the user's own grants followed by the grants of each of
// its groups. A group whose grants cannot be listed is logged and skipped.
func (c *Collector) Gather(ctx context.Context, user cryptox.KeyHolder) ([]*Grant, error) {
	direct, err := c.userACs.ListForAccessor(ctx, user.HolderID())
	if err != nil {
		return nil, fmt.Errorf("list access controls of %s: %w", user.HolderID(), err)
	}

	grants := make([]*Grant, 0, len(direct))
	for _, rec := range direct {
		grants = append(grants, &Grant{Record: rec, Holder: user})
	}

	groups, err := c.groups.GroupsForUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("list groups of %s: %w", user.HolderID(), err)
	}
	for _, group := range groups {
		recs, err := c.groupACs.ListForAccessor(ctx, group.HolderID())
		if err != nil {
			c.logger.Warn(ctx, "skipping group", "accessor", group.HolderID(), "error", err)
			continue
		}
		for _, rec := range recs {
			grants = append(grants, &Grant{Record: rec, Holder: group})
		}
	}

	return grants, nil
}

// OpenForItem opens the first grant user holds on itemID, directly or through
// a group. With needModify only grants carrying the modify key count. It fails
// with common.ErrAuthorization when no grant qualifies.
func (c *Collector) OpenForItem(ctx context.Context, user cryptox.KeyHolder, itemID string,
	needModify bool) (*accesscontrol.AccessControl, error) {

	grants, err := c.Gather(ctx, user)
	if err != nil {
		return nil, err
	}
	for _, g := range grants {
		if g.ItemID() != itemID {
			continue
		}
		ac, err := g.Open()
		if err != nil {
			c.logger.Debug(ctx, "grant does not open", "item_id", itemID, "accessor", g.Holder.HolderID(), "error", err)
			continue
		}
		if needModify && !ac.CanModify() {
			continue
		}
		return ac, nil
	}
	return nil, fmt.Errorf("%w: %s has no usable access to %s", common.ErrAuthorization, user.HolderID(), itemID)
}
