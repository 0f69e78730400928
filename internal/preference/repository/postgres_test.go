package repository

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psup-auth/internal/preference"
)

func TestPostgresRepository_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT value FROM user_preferences WHERE`).
		WithArgs(preference.EmailConfirmed, "u1").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow("0"))

	v, ok, err := NewPostgresRepository(mock).Get(context.Background(), "u1", preference.EmailConfirmed)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "0", v)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Get_Missing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT value FROM user_preferences WHERE`).
		WithArgs(preference.WantsURL, "u1").
		WillReturnRows(pgxmock.NewRows([]string{"value"}))

	v, ok, err := NewPostgresRepository(mock).Get(context.Background(), "u1", preference.WantsURL)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestPostgresRepository_SetUpserts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO user_preferences .* ON CONFLICT \(user_id, name\) DO UPDATE`).
		WithArgs("u1", preference.EmailConfirmed, "1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, NewPostgresRepository(mock).Set(context.Background(), "u1", preference.EmailConfirmed, "1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Unset(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM user_preferences WHERE`).
		WithArgs(preference.WantsURL, "u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, NewPostgresRepository(mock).Unset(context.Background(), "u1", preference.WantsURL))
	require.NoError(t, mock.ExpectationsWereMet())
}
