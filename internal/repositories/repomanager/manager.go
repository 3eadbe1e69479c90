package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophvault/internal/dbx"
	"github.com/dmitrijs2005/gophvault/internal/repositories/accesscontrols"
	"github.com/dmitrijs2005/gophvault/internal/repositories/configuration"
	"github.com/dmitrijs2005/gophvault/internal/repositories/groups"
	"github.com/dmitrijs2005/gophvault/internal/repositories/items"
	"github.com/dmitrijs2005/gophvault/internal/repositories/locations"
	"github.com/dmitrijs2005/gophvault/internal/repositories/memberships"
	"github.com/dmitrijs2005/gophvault/internal/repositories/nodes"
	"github.com/dmitrijs2005/gophvault/internal/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so callers can pick
// between the pool and a transaction per operation.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Items(db dbx.DBTX) items.Repository
	Nodes(db dbx.DBTX) nodes.Repository
	Users(db dbx.DBTX) users.Repository
	Groups(db dbx.DBTX) groups.Repository
	Memberships(db dbx.DBTX) memberships.Repository
	UserAccessControls(db dbx.DBTX) accesscontrols.Repository
	GroupAccessControls(db dbx.DBTX) accesscontrols.Repository
	Configuration(db dbx.DBTX) configuration.Repository
	Locations(db dbx.DBTX) locations.Repository
}
