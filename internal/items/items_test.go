package items

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/accesscontrol"
	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/cryptox"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/dmitrijs2005/gophvault/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndDecrypt(t *testing.T) {
	expiry := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	props := &models.ItemProperties{Username: "alice", Password: "s3cret", Expiry: &expiry, Custom: map[string]string{"port": "22"}}

	item, ref, err := Create("n1", "sysA", props)
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, item.ID, ref.ItemID)
	assert.True(t, item.Enabled)
	assert.NotContains(t, string(item.Data), "s3cret")

	readOnly, err := accesscontrol.From(ref).WithPermission(accesscontrol.Read).Build()
	require.NoError(t, err)
	got, err := Decrypt(readOnly, item)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "s3cret", got.Password)
	assert.True(t, expiry.Equal(*got.Expiry))
	assert.Equal(t, "22", got.Custom["port"])

	err = Encrypt(readOnly, item, props)
	assert.True(t, errors.Is(err, common.ErrAuthorization))
}

func TestDecrypt_Corrupt(t *testing.T) {
	item, ref, err := Create("n1", "", &models.ItemProperties{Username: "x"})
	require.NoError(t, err)
	item.Data = item.Data[:len(item.Data)-1]

	_, err = Decrypt(ref, item)
	assert.True(t, errors.Is(err, common.ErrCryptographic))
}

func TestServiceAdd(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	svc := NewService(s.Items(), s.UserAccessControls(), s.GroupAccessControls())

	creator := cryptox.NewStaticKeyHolder("u1", cryptox.GenerateAccessKey())
	admins := cryptox.NewStaticKeyHolder("admins", cryptox.GenerateAccessKey())

	item, _, err := svc.Add(ctx, creator, admins, models.RootNodeID, "sysA", &models.ItemProperties{Username: "bob"})
	require.NoError(t, err)

	stored, err := s.Items().GetByID(ctx, item.ID)
	require.NoError(t, err)

	rec, err := s.UserAccessControls().Get(ctx, "u1", item.ID)
	require.NoError(t, err)
	ac := accesscontrol.FromRecord(rec)
	require.NoError(t, ac.OpenWith(creator))
	assert.True(t, ac.CanModify())

	props, err := Decrypt(ac, stored)
	require.NoError(t, err)
	assert.Equal(t, "bob", props.Username)

	_, err = s.GroupAccessControls().Get(ctx, "admins", item.ID)
	require.NoError(t, err)
}

func TestServiceAdd_BadHolder(t *testing.T) {
	s := memory.NewStore()
	svc := NewService(s.Items(), s.UserAccessControls(), s.GroupAccessControls())

	_, _, err := svc.Add(context.Background(), cryptox.NewStaticKeyHolder("u1", nil),
		cryptox.NewStaticKeyHolder("admins", cryptox.GenerateAccessKey()), models.RootNodeID, "", &models.ItemProperties{})
	assert.True(t, errors.Is(err, common.ErrCryptographic))
}

func TestServiceDelete(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	svc := NewService(s.Items(), s.UserAccessControls(), s.GroupAccessControls())
	creator := cryptox.NewStaticKeyHolder("u1", cryptox.GenerateAccessKey())
	admins := cryptox.NewStaticKeyHolder("admins", cryptox.GenerateAccessKey())

	gone, _, err := svc.Add(ctx, creator, admins, models.RootNodeID, "", &models.ItemProperties{})
	require.NoError(t, err)
	kept, _, err := svc.Add(ctx, creator, admins, models.RootNodeID, "", &models.ItemProperties{})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, gone.ID))

	_, err = s.Items().GetByID(ctx, gone.ID)
	assert.True(t, errors.Is(err, common.ErrorNotFound))
	users, err := s.UserAccessControls().ListAccessorsForItem(ctx, gone.ID)
	require.NoError(t, err)
	assert.Empty(t, users)
	groups, err := s.GroupAccessControls().ListAccessorsForItem(ctx, gone.ID)
	require.NoError(t, err)
	assert.Empty(t, groups)

	_, err = s.UserAccessControls().Get(ctx, "u1", kept.ID)
	assert.NoError(t, err)

	err = svc.Delete(ctx, gone.ID)
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}
