// Package permissions grants and rewrites access to items for batches of
// named users and groups.
//
// Batches never abort on a bad entry: an entry that cannot be resolved,
// encrypted or stored is logged and reported in the Result, and the rest of
// the batch carries on. Callers that need the batch to be atomic run it on
// repositories bound to a transaction (see dbx.WithTx).
package permissions

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/gophvault/internal/accesscontrol"
	"github.com/dmitrijs2005/gophvault/internal/accessors"
	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/cryptox"
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/dmitrijs2005/gophvault/internal/repositories/accesscontrols"
)

// Resolver finds accessors by name and unlocks their keys.
type Resolver interface {
	AdminUser(ctx context.Context, adminGroup cryptox.KeyHolder) (*accessors.User, error)
	UserByName(ctx context.Context, name string, adminGroup cryptox.KeyHolder) (*accessors.User, error)
	GroupByName(ctx context.Context, name string, member cryptox.KeyHolder) (*accessors.Group, error)
	UserID(ctx context.Context, name string) (string, error)
	GroupID(ctx context.Context, name string) (string, error)
}

// Result lists the accessor names of a batch by outcome.
type Result struct {
	Written []string
	// Skipped entries already had access, or asked for none.
	Skipped []string
	// Revoked holds names, or ids for accessors not named in the batch.
	Revoked []string
	Failed  []string
}

// Setter acts with the authority of the admin group and the admin user
// unlocked through it.
type Setter struct {
	resolver   Resolver
	userACs    accesscontrols.Repository
	groupACs   accesscontrols.Repository
	adminGroup cryptox.KeyHolder
	adminUser  *accessors.User
	logger     logging.Logger
}

// NewSetter resolves the admin user through adminGroup. It fails if the
// admin user cannot be unlocked.
func NewSetter(ctx context.Context, r Resolver, userACs, groupACs accesscontrols.Repository,
	adminGroup cryptox.KeyHolder, l logging.Logger) (*Setter, error) {

	admin, err := r.AdminUser(ctx, adminGroup)
	if err != nil {
		return nil, fmt.Errorf("resolve admin user: %w", err)
	}
	return &Setter{
		resolver:   r,
		userACs:    userACs,
		groupACs:   groupACs,
		adminGroup: adminGroup,
		adminUser:  admin,
		logger:     l.With("module", "permissions"),
	}, nil
}

type kind struct {
	name    string
	repo    accesscontrols.Repository
	resolve func(ctx context.Context, name string) (cryptox.KeyHolder, error)
	id      func(ctx context.Context, name string) (string, error)
}

func (s *Setter) users() kind {
	return kind{
		name: "user",
		repo: s.userACs,
		resolve: func(ctx context.Context, name string) (cryptox.KeyHolder, error) {
			u, err := s.resolver.UserByName(ctx, name, s.adminGroup)
			if err != nil {
				return nil, err
			}
			return u.Key, nil
		},
		id: s.resolver.UserID,
	}
}

func (s *Setter) groups() kind {
	return kind{
		name: "group",
		repo: s.groupACs,
		resolve: func(ctx context.Context, name string) (cryptox.KeyHolder, error) {
			g, err := s.resolver.GroupByName(ctx, name, s.adminUser.Key)
			if err != nil {
				return nil, err
			}
			return g.Key, nil
		},
		id: s.resolver.GroupID,
	}
}

// StoreUserPermissions grants each named user the given permission on the
// item of ref. ref must hold the item's decrypted keys. Unless overwrite is
// set, users that already have an access control keep it untouched.
func (s *Setter) StoreUserPermissions(ctx context.Context, ref *accesscontrol.AccessControl,
	perms map[string]accesscontrol.Permission, overwrite bool) *Result {
	return s.store(ctx, s.users(), ref, perms, overwrite)
}

// StoreGroupPermissions is StoreUserPermissions for groups.
func (s *Setter) StoreGroupPermissions(ctx context.Context, ref *accesscontrol.AccessControl,
	perms map[string]accesscontrol.Permission, overwrite bool) *Result {
	return s.store(ctx, s.groups(), ref, perms, overwrite)
}

func (s *Setter) store(ctx context.Context, k kind, ref *accesscontrol.AccessControl,
	perms map[string]accesscontrol.Permission, overwrite bool) *Result {

	res := &Result{}
	for _, name := range sortedNames(perms) {
		perm := perms[name]
		log := s.logger.With(k.name, name, "item_id", ref.ItemID)

		if perm == accesscontrol.None {
			res.Skipped = append(res.Skipped, name)
			continue
		}

		holder, err := k.resolve(ctx, name)
		if err != nil {
			log.Warn(ctx, "cannot resolve accessor", "error", err)
			res.Failed = append(res.Failed, name)
			continue
		}

		if !overwrite {
			_, gerr := k.repo.Get(ctx, holder.HolderID(), ref.ItemID)
			if gerr == nil {
				res.Skipped = append(res.Skipped, name)
				continue
			}
			if !errors.Is(gerr, common.ErrorNotFound) {
				log.Warn(ctx, "cannot check existing access, leaving it alone", "error", gerr)
				res.Skipped = append(res.Skipped, name)
				continue
			}
		}

		rec, err := seal(ref, holder, perm)
		if err != nil {
			log.Warn(ctx, "cannot build access control", "error", err)
			res.Failed = append(res.Failed, name)
			continue
		}

		if overwrite {
			err = swap(ctx, k.repo, holder.HolderID(), rec)
		} else {
			err = k.repo.Write(ctx, holder.HolderID(), rec)
		}
		if err != nil {
			log.Warn(ctx, "cannot store access control", "error", err)
			res.Failed = append(res.Failed, name)
			continue
		}
		log.Debug(ctx, "access granted", "permission", perm.String())
		res.Written = append(res.Written, name)
	}
	return res
}

// seal builds a control for holder from ref and encrypts it for storage.
// The modify key is carried only for modify grants.
func seal(ref *accesscontrol.AccessControl, holder cryptox.KeyHolder,
	perm accesscontrol.Permission) (*models.AccessControlRecord, error) {

	ac, err := accesscontrol.From(ref).
		WithAccessor(holder.HolderID()).
		WithPermission(perm).
		Build()
	if err != nil {
		return nil, err
	}
	if err := ac.SealFor(holder); err != nil {
		return nil, err
	}
	return ac.Record()
}

// swap replaces whatever accessorID holds on the item of rec with rec. When
// rec cannot be written the previous record is written back.
func swap(ctx context.Context, repo accesscontrols.Repository, accessorID string, rec *models.AccessControlRecord) error {
	prev, err := repo.Get(ctx, accessorID, rec.ItemID)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		prev = nil
	case err != nil:
		return fmt.Errorf("read existing access: %w", err)
	default:
		if err := repo.Delete(ctx, accessorID, rec.ItemID); err != nil {
			return fmt.Errorf("remove existing access: %w", err)
		}
	}

	if err := repo.Write(ctx, accessorID, rec); err != nil {
		if prev == nil {
			return err
		}
		if rerr := repo.Write(ctx, accessorID, prev); rerr != nil {
			return fmt.Errorf("%w; previous access lost: %w", err, rerr)
		}
		return fmt.Errorf("%w; previous access restored", err)
	}
	return nil
}

func sortedNames(perms map[string]accesscontrol.Permission) []string {
	names := make([]string, 0, len(perms))
	for name := range perms {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
