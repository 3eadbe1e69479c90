package access

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophvault/internal/accesscontrol"
	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/cryptox"
	"github.com/dmitrijs2005/gophvault/internal/items"
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/dmitrijs2005/gophvault/internal/repositories/accesscontrols"
	"github.com/dmitrijs2005/gophvault/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGroups struct {
	holders []cryptox.KeyHolder
	err     error
}

func (f *fakeGroups) GroupsForUser(context.Context, cryptox.KeyHolder) ([]cryptox.KeyHolder, error) {
	return f.holders, f.err
}

type failingACs struct {
	accesscontrols.Repository
	failFor string
}

func (f *failingACs) ListForAccessor(ctx context.Context, id string) ([]*models.AccessControlRecord, error) {
	if id == f.failFor {
		return nil, errors.New("db down")
	}
	return f.Repository.ListForAccessor(ctx, id)
}

func write(t *testing.T, repo accesscontrols.Repository, accessor, item string) {
	t.Helper()
	require.NoError(t, repo.Write(context.Background(), accessor, &models.AccessControlRecord{ItemID: item, EncryptedReadKey: []byte("r")}))
}

func TestGather_DirectAndViaGroups(t *testing.T) {
	s := memory.NewStore()
	write(t, s.UserAccessControls(), "u1", "i1")
	write(t, s.GroupAccessControls(), "g1", "i2")
	write(t, s.GroupAccessControls(), "g1", "i1")
	write(t, s.GroupAccessControls(), "g2", "i3")

	user := cryptox.NewStaticKeyHolder("u1", cryptox.GenerateAccessKey())
	g1 := cryptox.NewStaticKeyHolder("g1", cryptox.GenerateAccessKey())
	c := NewCollector(s.UserAccessControls(), s.GroupAccessControls(), &fakeGroups{holders: []cryptox.KeyHolder{g1}}, logging.NewNop())

	grants, err := c.Gather(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, grants, 3)

	assert.Equal(t, "i1", grants[0].ItemID())
	assert.False(t, grants[0].ViaGroup(user))
	assert.Equal(t, "i1", grants[1].ItemID())
	assert.True(t, grants[1].ViaGroup(user))
	assert.Same(t, g1, grants[2].Holder)
}

func TestGather_GroupFailureSkipped(t *testing.T) {
	s := memory.NewStore()
	write(t, s.GroupAccessControls(), "g1", "i1")
	write(t, s.GroupAccessControls(), "g2", "i2")

	var buf bytes.Buffer
	groups := &fakeGroups{holders: []cryptox.KeyHolder{
		cryptox.NewStaticKeyHolder("g1", nil),
		cryptox.NewStaticKeyHolder("g2", nil),
	}}
	c := NewCollector(s.UserAccessControls(), &failingACs{Repository: s.GroupAccessControls(), failFor: "g1"}, groups, logging.New("debug", &buf))

	grants, err := c.Gather(context.Background(), cryptox.NewStaticKeyHolder("u1", nil))
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, "i2", grants[0].ItemID())
	assert.Contains(t, buf.String(), "skipping group")
}

func TestGather_Errors(t *testing.T) {
	s := memory.NewStore()
	user := cryptox.NewStaticKeyHolder("u1", nil)

	c := NewCollector(&failingACs{Repository: s.UserAccessControls(), failFor: "u1"}, s.GroupAccessControls(), &fakeGroups{}, logging.NewNop())
	_, err := c.Gather(context.Background(), user)
	assert.Error(t, err)

	c = NewCollector(s.UserAccessControls(), s.GroupAccessControls(), &fakeGroups{err: errors.New("boom")}, logging.NewNop())
	_, err = c.Gather(context.Background(), user)
	assert.Error(t, err)
}

func TestGrantOpen(t *testing.T) {
	key, err := cryptox.GenerateKeyPair(1024)
	require.NoError(t, err)
	holder := cryptox.NewStaticKeyHolder("u1", cryptox.GenerateAccessKey())

	readBytes, err := cryptox.EncodePublicKey(&key.PublicKey)
	require.NoError(t, err)
	enc, err := cryptox.EncrypterFor(holder, "i1")
	require.NoError(t, err)
	sealed, err := enc.Encrypt(readBytes)
	require.NoError(t, err)

	g := &Grant{Record: &models.AccessControlRecord{ItemID: "i1", AccessorID: "u1", EncryptedReadKey: sealed}, Holder: holder}
	ac, err := g.Open()
	require.NoError(t, err)
	assert.True(t, key.PublicKey.Equal(ac.ReadKey))
	assert.False(t, ac.CanModify())

	g.Holder = cryptox.NewStaticKeyHolder("u1", nil)
	_, err = g.Open()
	assert.Error(t, err)
}

func TestOpenForItem(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	user := cryptox.NewStaticKeyHolder("u1", cryptox.GenerateAccessKey())
	team := cryptox.NewStaticKeyHolder("g1", cryptox.GenerateAccessKey())
	svc := items.NewService(s.Items(), s.UserAccessControls(), s.GroupAccessControls())

	// the user reads it directly and modifies it through the group
	item, ref, err := svc.Add(ctx, cryptox.NewStaticKeyHolder("u9", cryptox.GenerateAccessKey()), team, models.RootNodeID, "", &models.ItemProperties{})
	require.NoError(t, err)
	readOnly, err := accesscontrol.From(ref).WithAccessor("u1").WithPermission(accesscontrol.Read).Build()
	require.NoError(t, err)
	require.NoError(t, readOnly.SealFor(user))
	rec, err := readOnly.Record()
	require.NoError(t, err)
	require.NoError(t, s.UserAccessControls().Write(ctx, "u1", rec))

	c := NewCollector(s.UserAccessControls(), s.GroupAccessControls(), &fakeGroups{holders: []cryptox.KeyHolder{team}}, logging.NewNop())

	ac, err := c.OpenForItem(ctx, user, item.ID, false)
	require.NoError(t, err)
	assert.False(t, ac.CanModify(), "the direct grant comes first")

	ac, err = c.OpenForItem(ctx, user, item.ID, true)
	require.NoError(t, err)
	assert.True(t, ac.CanModify())

	solo := NewCollector(s.UserAccessControls(), s.GroupAccessControls(), &fakeGroups{}, logging.NewNop())
	_, err = solo.OpenForItem(ctx, user, item.ID, true)
	assert.True(t, errors.Is(err, common.ErrAuthorization))

	_, err = c.OpenForItem(ctx, user, "missing", false)
	assert.True(t, errors.Is(err, common.ErrAuthorization))
}
