package repository

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psup-auth/internal/role/domain"
)

func TestPostgresRepository_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, shortname, name FROM roles WHERE id = \$1`).WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "shortname", "name"}).AddRow(int64(5), "student", "Student"))
	mock.ExpectQuery(`SELECT id, shortname, name FROM roles WHERE id = \$1`).WithArgs(int64(6)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "shortname", "name"}))

	repo := NewPostgresRepository(mock)
	role, err := repo.GetByID(context.Background(), 5)
	require.NoError(t, err)
	require.NotNil(t, role)
	assert.Equal(t, "student", role.Shortname)

	missing, err := repo.GetByID(context.Background(), 6)
	require.NoError(t, err)
	assert.Nil(t, missing)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO roles .* RETURNING id, shortname, name`).WithArgs("student", "Student").
		WillReturnRows(pgxmock.NewRows([]string{"id", "shortname", "name"}).AddRow(int64(3), "student", "Student"))

	role, err := NewPostgresRepository(mock).Create(context.Background(), &domain.Role{Shortname: "student", Name: "Student"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), role.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Assign(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectExec(`INSERT INTO role_assignments .* DO NOTHING`).
		WithArgs(int64(3), "u1", domain.SystemContext, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = NewPostgresRepository(mock).Assign(context.Background(), &domain.Assignment{
		RoleID: 3, UserID: "u1", ContextID: domain.SystemContext, CreatedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ListAssigned(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT r.id, r.shortname, r.name FROM roles r JOIN role_assignments a`).
		WithArgs(domain.SystemContext, "u1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "shortname", "name"}).AddRow(int64(3), "student", "Student"))

	roles, err := NewPostgresRepository(mock).ListAssigned(context.Background(), "u1", domain.SystemContext)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, int64(3), roles[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
