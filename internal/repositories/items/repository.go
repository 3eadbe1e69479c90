package items

import (
	"context"

	"github.com/dmitrijs2005/gophvault/internal/models"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*models.Item, error)
	Store(ctx context.Context, item *models.Item) error
	ListChildren(ctx context.Context, nodeID string) ([]*models.Item, error)
	Delete(ctx context.Context, id string) error
}
