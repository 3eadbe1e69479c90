package accessors

import (
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/cryptox"
	"github.com/dmitrijs2005/gophvault/internal/models"
)

const saltSize = 16

// NewUser builds a user record with a fresh access key. The key is sealed
// under the login password and under adminGroup's key.
func NewUser(id, name string, password []byte, adminGroup cryptox.KeyHolder) (*models.User, *cryptox.StaticKeyHolder, error) {
	accessKey := cryptox.GenerateAccessKey()
	salt := common.GenerateRandByteArray(saltSize)

	loginKey := cryptox.DeriveLoginKey(password, salt)
	defer common.WipeByteArray(loginKey)

	sealedLogin, err := cryptox.SealAccessKey(cryptox.NewStaticKeyHolder(id, loginKey), id, accessKey)
	if err != nil {
		return nil, nil, fmt.Errorf("seal login key: %w", err)
	}
	sealedAdmin, err := cryptox.SealAccessKey(adminGroup, id, accessKey)
	if err != nil {
		return nil, nil, fmt.Errorf("seal admin key: %w", err)
	}

	u := &models.User{
		ID:       id,
		Name:     name,
		Enabled:  true,
		Salt:     salt,
		Verifier: cryptox.MakeVerifier(loginKey),
		LoginKey: sealedLogin,
		AdminKey: sealedAdmin,
	}
	return u, cryptox.NewStaticKeyHolder(id, accessKey), nil
}

// Enrol seals the key of group for user and returns the membership record.
func Enrol(user, group cryptox.KeyHolder) (*models.Membership, error) {
	key, err := group.AccessKey()
	if err != nil {
		return nil, err
	}
	sealed, err := cryptox.SealAccessKey(user, group.HolderID(), key)
	if err != nil {
		return nil, err
	}
	return &models.Membership{UserID: user.HolderID(), GroupID: group.HolderID(), GroupKey: sealed}, nil
}
