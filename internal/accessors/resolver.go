// Package accessors resolves users and groups together with the key holders
// that unlock their access keys.
package accessors

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/cryptox"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/dmitrijs2005/gophvault/internal/repositories/groups"
	"github.com/dmitrijs2005/gophvault/internal/repositories/memberships"
	"github.com/dmitrijs2005/gophvault/internal/repositories/users"
)

// User is a user whose access key can be produced by Key.
type User struct {
	*models.User
	Key cryptox.KeyHolder
}

// Group is a group whose access key can be produced by Key.
type Group struct {
	*models.Group
	Key cryptox.KeyHolder
}

type Resolver struct {
	users       users.Repository
	groups      groups.Repository
	memberships memberships.Repository
}

func NewResolver(u users.Repository, g groups.Repository, m memberships.Repository) *Resolver {
	return &Resolver{users: u, groups: g, memberships: m}
}

// UserByName loads a user and unlocks its key with adminGroup, the key of the
// admin group every user key is sealed for.
func (r *Resolver) UserByName(ctx context.Context, name string, adminGroup cryptox.KeyHolder) (*User, error) {
	u, err := r.users.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: user %q: %w", common.ErrAuthorization, name, err)
	}
	return unlockUser(u, adminGroup)
}

// UserByID is UserByName keyed by id.
func (r *Resolver) UserByID(ctx context.Context, id string, adminGroup cryptox.KeyHolder) (*User, error) {
	u, err := r.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: user %s: %w", common.ErrAuthorization, id, err)
	}
	return unlockUser(u, adminGroup)
}

// AdminUser resolves the built-in administrator through the admin group.
func (r *Resolver) AdminUser(ctx context.Context, adminGroup cryptox.KeyHolder) (*User, error) {
	return r.UserByID(ctx, models.AdminUserID, adminGroup)
}

func unlockUser(u *models.User, adminGroup cryptox.KeyHolder) (*User, error) {
	holder := cryptox.NewDelegatedKeyHolder(u.ID, u.AdminKey, adminGroup)
	if _, err := holder.AccessKey(); err != nil {
		return nil, fmt.Errorf("unlock user %s: %w", u.ID, err)
	}
	return &User{User: u, Key: holder}, nil
}

// GroupByName loads a group and unlocks its key through the membership of
// member, which is usually the admin user.
func (r *Resolver) GroupByName(ctx context.Context, name string, member cryptox.KeyHolder) (*Group, error) {
	g, err := r.groups.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: group %q: %w", common.ErrAuthorization, name, err)
	}
	return r.unlockGroup(ctx, g, member)
}

// GroupByID is GroupByName keyed by id.
func (r *Resolver) GroupByID(ctx context.Context, id string, member cryptox.KeyHolder) (*Group, error) {
	g, err := r.groups.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: group %s: %w", common.ErrAuthorization, id, err)
	}
	return r.unlockGroup(ctx, g, member)
}

func (r *Resolver) unlockGroup(ctx context.Context, g *models.Group, member cryptox.KeyHolder) (*Group, error) {
	m, err := r.memberships.Get(ctx, member.HolderID(), g.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a member of %s: %w", common.ErrAuthorization, member.HolderID(), g.ID, err)
	}
	holder := cryptox.NewDelegatedKeyHolder(g.ID, m.GroupKey, member)
	if _, err := holder.AccessKey(); err != nil {
		return nil, fmt.Errorf("unlock group %s: %w", g.ID, err)
	}
	return &Group{Group: g, Key: holder}, nil
}

// GroupsForUser returns a key holder for every enabled group user belongs
// to. The holders are not checked; a bad group key surfaces when used.
func (r *Resolver) GroupsForUser(ctx context.Context, user cryptox.KeyHolder) ([]cryptox.KeyHolder, error) {
	list, err := r.memberships.ListForUser(ctx, user.HolderID())
	if err != nil {
		return nil, err
	}
	holders := make([]cryptox.KeyHolder, 0, len(list))
	for _, m := range list {
		holders = append(holders, cryptox.NewDelegatedKeyHolder(m.GroupID, m.GroupKey, user))
	}
	return holders, nil
}

// UserID returns the id of the user called name without unlocking it.
func (r *Resolver) UserID(ctx context.Context, name string) (string, error) {
	u, err := r.users.GetByName(ctx, name)
	if err != nil {
		return "", err
	}
	return u.ID, nil
}

// GroupID returns the id of the group called name.
func (r *Resolver) GroupID(ctx context.Context, name string) (string, error) {
	g, err := r.groups.GetByName(ctx, name)
	if err != nil {
		return "", err
	}
	return g.ID, nil
}
