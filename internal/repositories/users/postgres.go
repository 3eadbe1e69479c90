package users

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

func (r *PostgresRepository) Store(ctx context.Context, user *models.User) error {
	query :=
		`INSERT INTO users (id, name, enabled, salt, verifier, login_key, admin_key)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id)
		 DO UPDATE SET
			name = EXCLUDED.name,
			enabled = EXCLUDED.enabled,
			salt = EXCLUDED.salt,
			verifier = EXCLUDED.verifier,
			login_key = EXCLUDED.login_key,
			admin_key = EXCLUDED.admin_key
		 `

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Enabled, user.Salt, user.Verifier, user.LoginKey, user.AdminKey)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT id, name, enabled, salt, verifier, login_key, admin_key FROM users
		 WHERE id = $1
		 `
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.User, error) {
	query :=
		`SELECT id, name, enabled, salt, verifier, login_key, admin_key FROM users
		 WHERE name = $1
		 `
	return r.getOne(ctx, query, name)
}

func (r *PostgresRepository) getOne(ctx context.Context, query, arg string) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Name, &user.Enabled, &user.Salt, &user.Verifier, &user.LoginKey, &user.AdminKey)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}
