package nodes

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nodeColumns = []string{"id", "name", "parent_id", "type", "owner_id"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func TestGetByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*name,\s*parent_id,\s*type,\s*owner_id\s+FROM\s+hierarchy\s+WHERE\s+id\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).WithArgs("0").
		WillReturnRows(sqlmock.NewRows(nodeColumns).AddRow("0", "Root", nil, "container", nil))

	got, err := repo.GetByID(context.Background(), "0")
	require.NoError(t, err)
	assert.True(t, got.IsRoot())
	assert.Empty(t, got.ParentID)
	assert.Equal(t, models.NodeTypeContainer, got.Type)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+hierarchy`).WithArgs("x").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "x")
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

func TestGetPersonalNodeForUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)FROM\s+hierarchy\s+WHERE\s+owner_id\s*=\s*\$1`
	mock.ExpectQuery(q).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(nodeColumns).AddRow("p1", "alice", "0", "container", "u1"))

	got, err := repo.GetPersonalNodeForUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, &models.HierarchyNode{ID: "p1", Name: "alice", ParentID: "0", Type: models.NodeTypeContainer, OwnerID: "u1"}, got)
}

func TestGetPersonalNodeForUser_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`owner_id`).WithArgs("u1").WillReturnError(errors.New("db down"))

	_, err := repo.GetPersonalNodeForUser(context.Background(), "u1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrorNotFound))
	assert.Contains(t, err.Error(), "db error")
}

func TestStore(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)INSERT\s+INTO\s+hierarchy\s*\(id,\s*name,\s*parent_id,\s*type,\s*owner_id\)\s*VALUES.*ON\s+CONFLICT\s*\(id\)`
	mock.ExpectExec(q).
		WithArgs("n1", "Servers", sql.NullString{String: "0", Valid: true}, "container", sql.NullString{}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Store(context.Background(), &models.HierarchyNode{ID: "n1", Name: "Servers", ParentID: "0", Type: models.NodeTypeContainer})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+hierarchy`).WillReturnError(errors.New("boom"))

	err := repo.Store(context.Background(), &models.HierarchyNode{ID: "n1"})
	require.Error(t, err)
}

func TestGetChildren(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)FROM\s+hierarchy\s+WHERE\s+parent_id\s*=\s*\$1\s+ORDER\s+BY\s+id`
	mock.ExpectQuery(q).WithArgs("0").
		WillReturnRows(sqlmock.NewRows(nodeColumns).
			AddRow("a", "A", "0", "container", nil).
			AddRow("b", "B", "0", "object", nil))

	got, err := repo.GetChildren(context.Background(), "0")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.NodeTypeObject, got[1].Type)
}

func TestGetChildren_Errors(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`parent_id`).WithArgs("0").WillReturnError(errors.New("boom"))
	_, err := repo.GetChildren(context.Background(), "0")
	require.Error(t, err)

	mock.ExpectQuery(`parent_id`).WithArgs("0").
		WillReturnRows(sqlmock.NewRows(nodeColumns).AddRow("a", "A", "0", "container", nil).RowError(0, errors.New("row")))
	_, err = repo.GetChildren(context.Background(), "0")
	require.Error(t, err)
}
