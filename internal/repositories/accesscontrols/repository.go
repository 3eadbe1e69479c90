package accesscontrols

import (
	"context"

	"github.com/dmitrijs2005/gophvault/internal/models"
)

// Repository stores access control records for one kind of accessor. Users
// and groups have separate stores with the same shape.
type Repository interface {
	Get(ctx context.Context, accessorID, itemID string) (*models.AccessControlRecord, error)
	// Write inserts a new record. It never replaces an existing one and
	// rejects a record that carries no keys.
	Write(ctx context.Context, accessorID string, rec *models.AccessControlRecord) error
	Delete(ctx context.Context, accessorID, itemID string) error
	DeleteAllForItem(ctx context.Context, itemID string) error
	ListForAccessor(ctx context.Context, accessorID string) ([]*models.AccessControlRecord, error)
	ListAccessorsForItem(ctx context.Context, itemID string) ([]string, error)
}
