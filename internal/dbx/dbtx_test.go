package dbx_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophvault/internal/accesscontrol"
	"github.com/dmitrijs2005/gophvault/internal/accessors"
	"github.com/dmitrijs2005/gophvault/internal/cryptox"
	"github.com/dmitrijs2005/gophvault/internal/dbx"
	"github.com/dmitrijs2005/gophvault/internal/items"
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/dmitrijs2005/gophvault/internal/permissions"
	"github.com/dmitrijs2005/gophvault/internal/repositories/accesscontrols"
	"github.com/dmitrijs2005/gophvault/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE user_access_control (
    accessor_id TEXT NOT NULL,
    item_id     TEXT NOT NULL,
    read_key    BLOB,
    modify_key  BLOB,
    PRIMARY KEY (accessor_id, item_id),
    CHECK (read_key IS NOT NULL OR modify_key IS NOT NULL)
);
CREATE TABLE group_access_control (
    accessor_id TEXT NOT NULL,
    item_id     TEXT NOT NULL,
    read_key    BLOB,
    modify_key  BLOB,
    PRIMARY KEY (accessor_id, item_id),
    CHECK (read_key IS NOT NULL OR modify_key IS NOT NULL)
);`

var errBatch = errors.New("permission batch failed")

// vault keeps accessors in memory and access controls in SQLite, so only the
// access control writes go through the transaction.
type vault struct {
	db       *sql.DB
	resolver *accessors.Resolver
	admins   *cryptox.StaticKeyHolder
	keys     map[string]*cryptox.StaticKeyHolder
	ref      *accesscontrol.AccessControl
}

func newVault(t *testing.T) *vault {
	t.Helper()
	ctx := context.Background()

	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(schema)
	require.NoError(t, err)

	s := memory.NewStore()
	v := &vault{
		db:       db,
		resolver: accessors.NewResolver(s.Users(), s.Groups(), s.Memberships()),
		admins:   cryptox.NewStaticKeyHolder("admins", cryptox.GenerateAccessKey()),
		keys:     map[string]*cryptox.StaticKeyHolder{},
	}
	for id, name := range map[string]string{models.AdminUserID: "admin", "u-alice": "alice", "u-bob": "bob"} {
		u, key, err := accessors.NewUser(id, name, []byte(name), v.admins)
		require.NoError(t, err)
		require.NoError(t, s.Users().Store(ctx, u))
		v.keys[name] = key
	}

	_, v.ref, err = items.Create(models.RootNodeID, "", &models.ItemProperties{Username: "svc"})
	require.NoError(t, err)
	return v
}

// grant stores perms for users on tx and fails when any entry fails.
func (v *vault) grant(ctx context.Context, tx dbx.DBTX, perms map[string]accesscontrol.Permission) error {
	setter, err := permissions.NewSetter(ctx, v.resolver,
		accesscontrols.NewUserRepository(tx), accesscontrols.NewGroupRepository(tx), v.admins, logging.NewNop())
	if err != nil {
		return err
	}
	if res := setter.StoreUserPermissions(ctx, v.ref, perms, false); len(res.Failed) > 0 {
		return errBatch
	}
	return nil
}

func (v *vault) holders(t *testing.T) []string {
	t.Helper()
	ids, err := accesscontrols.NewUserRepository(v.db).ListAccessorsForItem(context.Background(), v.ref.ItemID)
	require.NoError(t, err)
	return ids
}

func TestWithTx_CommitsPermissionBatch(t *testing.T) {
	ctx := context.Background()
	v := newVault(t)

	err := dbx.WithTx(ctx, v.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return v.grant(ctx, tx, map[string]accesscontrol.Permission{"alice": accesscontrol.Read, "bob": accesscontrol.Modify})
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"u-alice", "u-bob"}, v.holders(t))

	rec, err := accesscontrols.NewUserRepository(v.db).Get(ctx, "u-alice", v.ref.ItemID)
	require.NoError(t, err)
	alice := accesscontrol.FromRecord(rec)
	require.NoError(t, alice.OpenWith(v.keys["alice"]))
	assert.True(t, alice.CanRead())
	assert.False(t, alice.CanModify())
}

func TestWithTx_FailedEntryRollsBackBatch(t *testing.T) {
	v := newVault(t)

	err := dbx.WithTx(context.Background(), v.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return v.grant(ctx, tx, map[string]accesscontrol.Permission{"alice": accesscontrol.Read, "mallory": accesscontrol.Read})
	})
	require.True(t, errors.Is(err, errBatch))
	assert.Empty(t, v.holders(t), "alice's grant must not outlive the failed batch")
}

func TestWithTx_PanicRollsBackBatch(t *testing.T) {
	v := newVault(t)

	defer func() {
		require.NotNil(t, recover(), "panic must reach the caller")
		assert.Empty(t, v.holders(t))
	}()

	_ = dbx.WithTx(context.Background(), v.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		require.NoError(t, v.grant(ctx, tx, map[string]accesscontrol.Permission{"bob": accesscontrol.Modify}))
		panic("setter blew up")
	})
}

func TestWithTx_BeginError(t *testing.T) {
	v := newVault(t)
	require.NoError(t, v.db.Close())

	called := false
	err := dbx.WithTx(context.Background(), v.db, nil, func(context.Context, dbx.DBTX) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
}

func TestNullString(t *testing.T) {
	assert.False(t, dbx.NullString("").Valid)
	assert.Equal(t, sql.NullString{String: "sysA", Valid: true}, dbx.NullString("sysA"))
}
