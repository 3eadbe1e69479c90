// Package memory keeps every vault repository in process memory. It backs
// tests and dry runs where no PostgreSQL instance is available.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/models"
)

// Store holds the data shared by the repositories it vends.
type Store struct {
	mu sync.RWMutex

	items       map[string]models.Item
	nodes       map[string]models.HierarchyNode
	users       map[string]models.User
	groups      map[string]models.Group
	memberships map[[2]string]models.Membership
	userACs     map[[2]string]models.AccessControlRecord
	groupACs    map[[2]string]models.AccessControlRecord
	options     map[string]string
	locations   map[string]models.Location
}

// NewStore returns an empty store holding only the root node.
func NewStore() *Store {
	s := &Store{
		items:       map[string]models.Item{},
		nodes:       map[string]models.HierarchyNode{},
		users:       map[string]models.User{},
		groups:      map[string]models.Group{},
		memberships: map[[2]string]models.Membership{},
		userACs:     map[[2]string]models.AccessControlRecord{},
		groupACs:    map[[2]string]models.AccessControlRecord{},
		options:     map[string]string{},
		locations:   map[string]models.Location{},
	}
	s.nodes[models.RootNodeID] = models.HierarchyNode{ID: models.RootNodeID, Name: "Root", Type: models.NodeTypeContainer}
	return s
}

func (s *Store) Items() *Items                        { return &Items{s} }
func (s *Store) Nodes() *Nodes                        { return &Nodes{s} }
func (s *Store) Users() *Users                        { return &Users{s} }
func (s *Store) Groups() *Groups                      { return &Groups{s} }
func (s *Store) Memberships() *Memberships            { return &Memberships{s} }
func (s *Store) UserAccessControls() *AccessControls  { return &AccessControls{s: s, group: false} }
func (s *Store) GroupAccessControls() *AccessControls { return &AccessControls{s: s, group: true} }
func (s *Store) Configuration() *Configuration        { return &Configuration{s} }
func (s *Store) Locations() *Locations                { return &Locations{s} }

type Items struct{ s *Store }

func (r *Items) GetByID(_ context.Context, id string) (*models.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	item, ok := r.s.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	item.Data = slices.Clone(item.Data)
	return &item, nil
}

func (r *Items) Store(_ context.Context, item *models.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *item
	stored.Data = slices.Clone(item.Data)
	r.s.items[item.ID] = stored
	return nil
}

func (r *Items) ListChildren(_ context.Context, nodeID string) ([]*models.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.Item
	for _, item := range r.s.items {
		if item.ParentID == nodeID {
			out = append(out, &item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Items) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.items, id)
	return nil
}

type Nodes struct{ s *Store }

func (r *Nodes) GetByID(_ context.Context, id string) (*models.HierarchyNode, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	node, ok := r.s.nodes[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &node, nil
}

func (r *Nodes) Store(_ context.Context, node *models.HierarchyNode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nodes[node.ID] = *node
	return nil
}

func (r *Nodes) GetChildren(_ context.Context, parentID string) ([]*models.HierarchyNode, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.HierarchyNode
	for _, node := range r.s.nodes {
		if node.ParentID == parentID && node.ID != models.RootNodeID {
			out = append(out, &node)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Nodes) GetPersonalNodeForUser(_ context.Context, userID string) (*models.HierarchyNode, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, node := range r.s.nodes {
		if node.OwnerID != "" && node.OwnerID == userID {
			return &node, nil
		}
	}
	return nil, common.ErrorNotFound
}

type Users struct{ s *Store }

func (r *Users) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *Users) GetByName(_ context.Context, name string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Name == name {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *Users) Store(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users[user.ID] = *user
	return nil
}

type Groups struct{ s *Store }

func (r *Groups) GetByID(_ context.Context, id string) (*models.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	g, ok := r.s.groups[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &g, nil
}

func (r *Groups) GetByName(_ context.Context, name string) (*models.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, g := range r.s.groups {
		if g.Name == name {
			return &g, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *Groups) Store(_ context.Context, group *models.Group) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.groups[group.ID] = *group
	return nil
}

type Memberships struct{ s *Store }

func (r *Memberships) Get(_ context.Context, userID, groupID string) (*models.Membership, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.memberships[[2]string{userID, groupID}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &m, nil
}

func (r *Memberships) ListForUser(_ context.Context, userID string) ([]*models.Membership, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.Membership
	for key, m := range r.s.memberships {
		if key[0] != userID || !r.s.groups[key[1]].Enabled {
			continue
		}
		out = append(out, &m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GroupID < out[j].GroupID })
	return out, nil
}

func (r *Memberships) Store(_ context.Context, m *models.Membership) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.memberships[[2]string{m.UserID, m.GroupID}] = *m
	return nil
}

// AccessControls is the user or group access control store.
type AccessControls struct {
	s     *Store
	group bool
}

func (r *AccessControls) table() map[[2]string]models.AccessControlRecord {
	if r.group {
		return r.s.groupACs
	}
	return r.s.userACs
}

func (r *AccessControls) Get(_ context.Context, accessorID, itemID string) (*models.AccessControlRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.table()[[2]string{accessorID, itemID}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &rec, nil
}

func (r *AccessControls) Write(_ context.Context, accessorID string, rec *models.AccessControlRecord) error {
	if !rec.HasKeys() {
		return fmt.Errorf("%w: item %s accessor %s", common.ErrInvalidAccessControl, rec.ItemID, accessorID)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := [2]string{accessorID, rec.ItemID}
	if _, ok := r.table()[key]; ok {
		return fmt.Errorf("db error: access control for %s on %s already exists", accessorID, rec.ItemID)
	}
	rec.AccessorID = accessorID
	r.table()[key] = *rec
	return nil
}

func (r *AccessControls) Delete(_ context.Context, accessorID, itemID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.table(), [2]string{accessorID, itemID})
	return nil
}

func (r *AccessControls) DeleteAllForItem(_ context.Context, itemID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for key := range r.table() {
		if key[1] == itemID {
			delete(r.table(), key)
		}
	}
	return nil
}

func (r *AccessControls) ListForAccessor(_ context.Context, accessorID string) ([]*models.AccessControlRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.AccessControlRecord
	for key, rec := range r.table() {
		if key[0] == accessorID {
			out = append(out, &rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

func (r *AccessControls) ListAccessorsForItem(_ context.Context, itemID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []string
	for key := range r.table() {
		if key[1] == itemID {
			out = append(out, key[0])
		}
	}
	sort.Strings(out)
	return out, nil
}

type Configuration struct{ s *Store }

func (r *Configuration) Get(_ context.Context, key string) (string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.options[key]
	if !ok {
		return "", common.ErrorNotFound
	}
	return v, nil
}

func (r *Configuration) Set(_ context.Context, key, value string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.options[key] = value
	return nil
}

func (r *Configuration) Delete(_ context.Context, key string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.options, key)
	return nil
}

type Locations struct{ s *Store }

func (r *Locations) GetByID(_ context.Context, id string) (*models.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	loc, ok := r.s.locations[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &loc, nil
}

func (r *Locations) GetByName(_ context.Context, name string) (*models.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, loc := range r.s.locations {
		if loc.Name == name {
			return &loc, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *Locations) Store(_ context.Context, loc *models.Location) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.locations[loc.ID] = *loc
	return nil
}
