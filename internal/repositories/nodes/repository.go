package nodes

import (
	"context"

	"github.com/dmitrijs2005/gophvault/internal/models"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*models.HierarchyNode, error)
	Store(ctx context.Context, node *models.HierarchyNode) error
	GetChildren(ctx context.Context, parentID string) ([]*models.HierarchyNode, error)
	// GetPersonalNodeForUser returns common.ErrorNotFound when the user has
	// no personal node.
	GetPersonalNodeForUser(ctx context.Context, userID string) (*models.HierarchyNode, error)
}
