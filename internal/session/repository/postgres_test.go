package repository

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psup-auth/internal/session/domain"
)

func TestPostgresRepository_CreateAndGet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	s := &domain.Session{ID: "s1", UserID: "u1", ExpiresAt: now.Add(time.Hour), IPAddress: "10.0.0.1", WantsURL: "/course/view.php?id=2", CreatedAt: now}

	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs("s1", "u1", s.ExpiresAt, "10.0.0.1", "/course/view.php?id=2", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT .* FROM sessions WHERE id = \$1`).WithArgs("s1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "expires_at", "revoked_at", "last_seen_at", "ip_address", "wants_url", "created_at"}).
			AddRow("s1", "u1", s.ExpiresAt, nil, nil, "10.0.0.1", "/course/view.php?id=2", now))

	repo := NewPostgresRepository(mock)
	require.NoError(t, repo.Create(context.Background(), s))
	got, err := repo.GetByID(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.RevokedAt)
	assert.Equal(t, "/course/view.php?id=2", got.WantsURL)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT .* FROM sessions`).WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "expires_at", "revoked_at", "last_seen_at", "ip_address", "wants_url", "created_at"}))

	got, err := NewPostgresRepository(mock).GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPostgresRepository_Revoke(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`UPDATE sessions SET revoked_at = \$1 WHERE id = \$2 AND revoked_at IS NULL`).
		WithArgs(pgxmock.AnyArg(), "s1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, NewPostgresRepository(mock).Revoke(context.Background(), "s1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_SetWantsURL(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`UPDATE sessions SET wants_url = \$1 WHERE id = \$2`).
		WithArgs("/my/", "s1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, NewPostgresRepository(mock).SetWantsURL(context.Background(), "s1", "/my/"))
	require.NoError(t, mock.ExpectationsWereMet())
}
