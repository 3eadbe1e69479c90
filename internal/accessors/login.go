package accessors

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/cryptox"
	"github.com/dmitrijs2005/gophvault/internal/repositories/users"
)

// Unlock checks a login password and returns the user with its access key
// in memory. Unknown users, disabled users and wrong passwords all fail with
// common.ErrAuthorization.
func Unlock(ctx context.Context, repo users.Repository, name string, password []byte) (*User, error) {
	u, err := repo.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: login %q: %w", common.ErrAuthorization, name, err)
	}
	if !u.Enabled {
		return nil, fmt.Errorf("%w: user %q is disabled", common.ErrAuthorization, name)
	}

	loginKey := cryptox.DeriveLoginKey(password, u.Salt)
	defer common.WipeByteArray(loginKey)

	if subtle.ConstantTimeCompare(cryptox.MakeVerifier(loginKey), u.Verifier) != 1 {
		return nil, fmt.Errorf("%w: bad password for %q", common.ErrAuthorization, name)
	}

	sealed := cryptox.NewDelegatedKeyHolder(u.ID, u.LoginKey, cryptox.NewStaticKeyHolder(u.ID, loginKey))
	key, err := sealed.AccessKey()
	if err != nil {
		return nil, fmt.Errorf("unlock user %s: %w", u.ID, err)
	}

	return &User{User: u, Key: cryptox.NewStaticKeyHolder(u.ID, key)}, nil
}
