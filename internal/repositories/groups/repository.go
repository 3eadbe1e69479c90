package groups

import (
	"context"

	"github.com/dmitrijs2005/gophvault/internal/models"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*models.Group, error)
	GetByName(ctx context.Context, name string) (*models.Group, error)
	Store(ctx context.Context, group *models.Group) error
}
