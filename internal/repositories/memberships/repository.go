package memberships

import (
	"context"

	"github.com/dmitrijs2005/gophvault/internal/models"
)

type Repository interface {
	Get(ctx context.Context, userID, groupID string) (*models.Membership, error)
	// ListForUser returns the memberships of userID in enabled groups.
	ListForUser(ctx context.Context, userID string) ([]*models.Membership, error)
	Store(ctx context.Context, m *models.Membership) error
}
