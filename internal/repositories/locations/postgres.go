// Package locations stores the systems items belong to.
package locations

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

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Location, error) {
	return r.getOne(ctx, `SELECT id, name, password_changer FROM locations WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Location, error) {
	return r.getOne(ctx, `SELECT id, name, password_changer FROM locations WHERE name = $1`, name)
}

func (r *PostgresRepository) getOne(ctx context.Context, query, arg string) (*models.Location, error) {
	loc := &models.Location{}
	var changer sql.NullString
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&loc.ID, &loc.Name, &changer); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	loc.ChangerID = changer.String
	return loc, nil
}

func (r *PostgresRepository) Store(ctx context.Context, loc *models.Location) error {
	query := `
		INSERT INTO locations (id, name, password_changer) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, password_changer = EXCLUDED.password_changer
	`
	if _, err := r.db.ExecContext(ctx, query, loc.ID, loc.Name, dbx.NullString(loc.ChangerID)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
