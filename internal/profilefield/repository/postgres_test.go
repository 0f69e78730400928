package repository

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psup-auth/internal/profilefield/domain"
)

func TestPostgresRepository_EnsureFields(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO user_info_fields .* ON CONFLICT \(shortname\) DO UPDATE SET name = EXCLUDED.name`).
		WithArgs("psupid", "Parcoursup identifier", "text", "Parcoursup", false, false, false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO user_info_fields .* ON CONFLICT \(shortname\) DO UPDATE SET name = EXCLUDED.name`).
		WithArgs("psupsession", "Parcoursup session", "text", "Parcoursup", false, false, false).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	require.NoError(t, NewPostgresRepository(mock).EnsureFields(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT d.data FROM user_info_data d JOIN user_info_fields f`).
		WithArgs("u1", "psupsession").
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow("2024"))

	v, ok, err := NewPostgresRepository(mock).Get(context.Background(), "u1", domain.FieldPsupSession)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2024", v)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Get_UnknownField(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, _, err = NewPostgresRepository(mock).Get(context.Background(), "u1", domain.Field(99))
	require.Error(t, err)
}

func TestPostgresRepository_Set(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO user_info_data \(user_id,field_id,data\) SELECT .* ON CONFLICT`).
		WithArgs("u1", "12345678", "psupid").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, NewPostgresRepository(mock).Set(context.Background(), "u1", domain.FieldPsupID, "12345678"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Set_NotProvisioned(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO user_info_data`).
		WithArgs("u1", "prev", "psupsession").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err = NewPostgresRepository(mock).Set(context.Background(), "u1", domain.FieldPsupSession, "prev")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFieldNotProvisioned))
}

func TestPostgresRepository_FindUserIDByPsupID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT u.id FROM users u JOIN user_info_data idd`).
		WithArgs("psupid", "psupsession", "12345678", "2024", "psup").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("u1"))

	id, err := NewPostgresRepository(mock).FindUserIDByPsupID(context.Background(), "psup", "12345678", "2024")
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	mock.ExpectQuery(`SELECT u.id FROM users u`).
		WithArgs("psupid", "psupsession", "87654321", "2024", "psup").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	id, err = NewPostgresRepository(mock).FindUserIDByPsupID(context.Background(), "psup", "87654321", "2024")
	require.NoError(t, err)
	assert.Empty(t, id)
	require.NoError(t, mock.ExpectationsWereMet())
}
