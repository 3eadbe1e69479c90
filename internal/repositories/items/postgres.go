// Package items stores sealed vault items in PostgreSQL.
package items

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/dbx"
	"github.com/dmitrijs2005/gophvault/internal/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Item, error) {
	query :=
		`SELECT id, parent_id, location_id, enabled, data FROM items
		 WHERE id = $1
		 `

	var item models.Item
	var location sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(&item.ID, &item.ParentID, &location, &item.Enabled, &item.Data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	item.LocationID = location.String

	return &item, nil
}

// Store inserts item or replaces the stored row with the same id.
func (r *PostgresRepository) Store(ctx context.Context, item *models.Item) error {
	query := `
		INSERT INTO items (id, parent_id, location_id, enabled, data)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id)
		DO UPDATE SET
			parent_id = EXCLUDED.parent_id,
			location_id = EXCLUDED.location_id,
			enabled = EXCLUDED.enabled,
			data = EXCLUDED.data
	`

	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.ParentID, dbx.NullString(item.LocationID), item.Enabled, item.Data)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Delete removes the item row. A missing item is common.ErrorNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// ListChildren returns the items held directly by nodeID, ordered by id.
func (r *PostgresRepository) ListChildren(ctx context.Context, nodeID string) ([]*models.Item, error) {
	query := `SELECT id, parent_id, location_id, enabled, data FROM items
		WHERE parent_id = $1
		ORDER BY id
		`

	rows, err := r.db.QueryContext(ctx, query, nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to select items: %w", err)
	}
	defer rows.Close()

	var result []*models.Item
	for rows.Next() {
		var item models.Item
		var location sql.NullString
		if err := rows.Scan(&item.ID, &item.ParentID, &location, &item.Enabled, &item.Data); err != nil {
			return nil, err
		}
		item.LocationID = location.String
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
