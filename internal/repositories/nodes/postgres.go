// Package nodes stores the hierarchy tree in PostgreSQL.
package nodes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/dbx"
	"github.com/dmitrijs2005/gophvault/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(row scanner) (*models.HierarchyNode, error) {
	var node models.HierarchyNode
	var parent, owner sql.NullString
	var nodeType string
	if err := row.Scan(&node.ID, &node.Name, &parent, &nodeType, &owner); err != nil {
		return nil, err
	}
	node.ParentID = parent.String
	node.OwnerID = owner.String
	node.Type = models.NodeType(nodeType)
	return &node, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.HierarchyNode, error) {
	node, err := scanNode(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return node, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.HierarchyNode, error) {
	query :=
		`SELECT id, name, parent_id, type, owner_id FROM hierarchy
		 WHERE id = $1
		 `
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetPersonalNodeForUser(ctx context.Context, userID string) (*models.HierarchyNode, error) {
	query :=
		`SELECT id, name, parent_id, type, owner_id FROM hierarchy
		 WHERE owner_id = $1
		 `
	return r.getOne(ctx, query, userID)
}

// Store inserts node or updates the row with the same id.
func (r *PostgresRepository) Store(ctx context.Context, node *models.HierarchyNode) error {
	query := `
		INSERT INTO hierarchy (id, name, parent_id, type, owner_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id)
		DO UPDATE SET
			name = EXCLUDED.name,
			parent_id = EXCLUDED.parent_id,
			type = EXCLUDED.type,
			owner_id = EXCLUDED.owner_id
	`

	_, err := r.db.ExecContext(ctx, query,
		node.ID, node.Name, dbx.NullString(node.ParentID), string(node.Type), dbx.NullString(node.OwnerID))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetChildren returns the direct children of parentID, ordered by id.
func (r *PostgresRepository) GetChildren(ctx context.Context, parentID string) ([]*models.HierarchyNode, error) {
	query := `SELECT id, name, parent_id, type, owner_id FROM hierarchy
		WHERE parent_id = $1
		ORDER BY id
		`

	rows, err := r.db.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to select nodes: %w", err)
	}
	defer rows.Close()

	var result []*models.HierarchyNode
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, node)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
