package permissions

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/accesscontrol"
)

// ReplacePermissions makes the named users and groups the complete list of
// accessors of itemID. Named accessors get a fresh access control with the
// requested permission, or lose access for None. Accessors that hold access
// but are not named lose it, except the admin group. An entry whose new
// control cannot be stored keeps the control it had. The admin group's own
// access control is the reference for the item keys.
func (s *Setter) ReplacePermissions(ctx context.Context, itemID string,
	userPerms, groupPerms map[string]accesscontrol.Permission) (*Result, error) {

	rec, err := s.groupACs.Get(ctx, s.adminGroup.HolderID(), itemID)
	if err != nil {
		return nil, fmt.Errorf("admin access to %s: %w", itemID, err)
	}
	ref := accesscontrol.FromRecord(rec)
	if err := ref.OpenWith(s.adminGroup); err != nil {
		return nil, fmt.Errorf("admin access to %s: %w", itemID, err)
	}

	res := &Result{}
	s.replace(ctx, s.users(), ref, userPerms, res, "")
	s.replace(ctx, s.groups(), ref, groupPerms, res, s.adminGroup.HolderID())
	return res, nil
}

func (s *Setter) replace(ctx context.Context, k kind, ref *accesscontrol.AccessControl,
	perms map[string]accesscontrol.Permission, res *Result, keep string) {

	named := map[string]bool{}
	for _, name := range sortedNames(perms) {
		perm := perms[name]
		log := s.logger.With(k.name, name, "item_id", ref.ItemID)

		id, err := k.id(ctx, name)
		if err != nil {
			log.Warn(ctx, "cannot resolve accessor", "error", err)
			res.Failed = append(res.Failed, name)
			continue
		}
		named[id] = true
		if id == keep {
			res.Skipped = append(res.Skipped, name)
			continue
		}

		if perm == accesscontrol.None {
			if err := k.repo.Delete(ctx, id, ref.ItemID); err != nil {
				log.Warn(ctx, "cannot revoke access", "error", err)
				res.Failed = append(res.Failed, name)
				continue
			}
			res.Revoked = append(res.Revoked, name)
			continue
		}

		holder, err := k.resolve(ctx, name)
		if err != nil {
			log.Warn(ctx, "cannot unlock accessor", "error", err)
			res.Failed = append(res.Failed, name)
			continue
		}
		rec, err := seal(ref, holder, perm)
		if err != nil {
			log.Warn(ctx, "cannot build access control", "error", err)
			res.Failed = append(res.Failed, name)
			continue
		}
		if err := swap(ctx, k.repo, id, rec); err != nil {
			log.Warn(ctx, "cannot store access control", "error", err)
			res.Failed = append(res.Failed, name)
			continue
		}
		res.Written = append(res.Written, name)
	}

	holders, err := k.repo.ListAccessorsForItem(ctx, ref.ItemID)
	if err != nil {
		s.logger.Warn(ctx, "cannot list accessors, unnamed access kept", "item_id", ref.ItemID, "error", err)
		return
	}
	for _, id := range holders {
		if named[id] || id == keep {
			continue
		}
		if err := k.repo.Delete(ctx, id, ref.ItemID); err != nil {
			s.logger.Warn(ctx, "cannot revoke access", k.name, id, "item_id", ref.ItemID, "error", err)
			res.Failed = append(res.Failed, id)
			continue
		}
		res.Revoked = append(res.Revoked, id)
	}
}
