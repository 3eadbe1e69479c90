// Package accesscontrols stores the per-accessor encrypted item keys.
package accesscontrols

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/dbx"
	"github.com/dmitrijs2005/gophvault/internal/models"
)

// Table names the backing table of a store.
type Table string

const (
	UserTable  Table = "user_access_control"
	GroupTable Table = "group_access_control"
)

// PostgresRepository implements Repository over one access control table.
type PostgresRepository struct {
	db    dbx.DBTX
	table Table
}

// NewPostgresRepository binds a repository to db and table. Only UserTable
// and GroupTable are valid; any other value panics.
func NewPostgresRepository(db dbx.DBTX, table Table) *PostgresRepository {
	if table != UserTable && table != GroupTable {
		panic(fmt.Sprintf("accesscontrols: unknown table %q", table))
	}
	return &PostgresRepository{db: db, table: table}
}

func NewUserRepository(db dbx.DBTX) *PostgresRepository {
	return NewPostgresRepository(db, UserTable)
}

func NewGroupRepository(db dbx.DBTX) *PostgresRepository {
	return NewPostgresRepository(db, GroupTable)
}

func (r *PostgresRepository) Get(ctx context.Context, accessorID, itemID string) (*models.AccessControlRecord, error) {
	query := fmt.Sprintf(
		`SELECT item_id, accessor_id, read_key, modify_key FROM %s
		 WHERE accessor_id = $1 AND item_id = $2
		 `, r.table)

	rec := &models.AccessControlRecord{}
	err := r.db.QueryRowContext(ctx, query, accessorID, itemID).
		Scan(&rec.ItemID, &rec.AccessorID, &rec.EncryptedReadKey, &rec.EncryptedModifyKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) Write(ctx context.Context, accessorID string, rec *models.AccessControlRecord) error {
	if !rec.HasKeys() {
		return fmt.Errorf("%w: item %s accessor %s", common.ErrInvalidAccessControl, rec.ItemID, accessorID)
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (accessor_id, item_id, read_key, modify_key)
		 VALUES ($1, $2, $3, $4)
		 `, r.table)

	_, err := r.db.ExecContext(ctx, query, accessorID, rec.ItemID, nullBytes(rec.EncryptedReadKey), nullBytes(rec.EncryptedModifyKey))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	rec.AccessorID = accessorID
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, accessorID, itemID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE accessor_id = $1 AND item_id = $2`, r.table)
	if _, err := r.db.ExecContext(ctx, query, accessorID, itemID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteAllForItem(ctx context.Context, itemID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE item_id = $1`, r.table)
	if _, err := r.db.ExecContext(ctx, query, itemID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListForAccessor returns every record held by accessorID, ordered by item id.
func (r *PostgresRepository) ListForAccessor(ctx context.Context, accessorID string) ([]*models.AccessControlRecord, error) {
	query := fmt.Sprintf(`SELECT item_id, accessor_id, read_key, modify_key FROM %s
		WHERE accessor_id = $1
		ORDER BY item_id
		`, r.table)

	rows, err := r.db.QueryContext(ctx, query, accessorID)
	if err != nil {
		return nil, fmt.Errorf("failed to select access controls: %w", err)
	}
	defer rows.Close()

	var result []*models.AccessControlRecord
	for rows.Next() {
		var rec models.AccessControlRecord
		if err := rows.Scan(&rec.ItemID, &rec.AccessorID, &rec.EncryptedReadKey, &rec.EncryptedModifyKey); err != nil {
			return nil, err
		}
		result = append(result, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListAccessorsForItem returns the ids of accessors holding a record for
// itemID, ordered by id.
func (r *PostgresRepository) ListAccessorsForItem(ctx context.Context, itemID string) ([]string, error) {
	query := fmt.Sprintf(`SELECT accessor_id FROM %s WHERE item_id = $1 ORDER BY accessor_id`, r.table)

	rows, err := r.db.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to select accessors: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
