// Package memberships stores group memberships and the group keys sealed for
// each member.
package memberships

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

func (r *PostgresRepository) Get(ctx context.Context, userID, groupID string) (*models.Membership, error) {
	query :=
		`SELECT user_id, group_id, group_key FROM membership
		 WHERE user_id = $1 AND group_id = $2
		 `

	m := &models.Membership{}
	err := r.db.QueryRowContext(ctx, query, userID, groupID).Scan(&m.UserID, &m.GroupID, &m.GroupKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]*models.Membership, error) {
	query := `SELECT m.user_id, m.group_id, m.group_key
		FROM membership m JOIN groups g ON g.id = m.group_id
		WHERE m.user_id = $1 AND g.enabled
		ORDER BY m.group_id
		`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select memberships: %w", err)
	}
	defer rows.Close()

	var result []*models.Membership
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.UserID, &m.GroupID, &m.GroupKey); err != nil {
			return nil, err
		}
		result = append(result, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Store(ctx context.Context, m *models.Membership) error {
	query := `
		INSERT INTO membership (user_id, group_id, group_key)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, group_id)
		DO UPDATE SET group_key = EXCLUDED.group_key
	`
	if _, err := r.db.ExecContext(ctx, query, m.UserID, m.GroupID, m.GroupKey); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
