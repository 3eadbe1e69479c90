package groups

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

func (r *PostgresRepository) Store(ctx context.Context, group *models.Group) error {
	query :=
		`INSERT INTO groups (id, name, enabled)
         VALUES ($1, $2, $3)
		 ON CONFLICT (id)
		 DO UPDATE SET name = EXCLUDED.name, enabled = EXCLUDED.enabled
		 `

	if _, err := r.db.ExecContext(ctx, query, group.ID, group.Name, group.Enabled); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	return r.getOne(ctx, `SELECT id, name, enabled FROM groups WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Group, error) {
	return r.getOne(ctx, `SELECT id, name, enabled FROM groups WHERE name = $1`, name)
}

func (r *PostgresRepository) getOne(ctx context.Context, query, arg string) (*models.Group, error) {
	group := &models.Group{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&group.ID, &group.Name, &group.Enabled)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return group, nil
}
