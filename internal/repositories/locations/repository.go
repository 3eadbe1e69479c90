package locations

import (
	"context"

	"github.com/dmitrijs2005/gophvault/internal/models"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*models.Location, error)
	GetByName(ctx context.Context, name string) (*models.Location, error)
	Store(ctx context.Context, loc *models.Location) error
}
