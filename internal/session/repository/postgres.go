package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"psup-auth/internal/db"
	"psup-auth/internal/session/domain"
)

const sessionsTable = "sessions"

type PostgresRepository struct {
	exec    db.Executor
	builder sq.StatementBuilderType
}

// NewPostgresRepository returns a session repository backed by a pgx pool, transaction or mock.
func NewPostgresRepository(exec db.Executor) *PostgresRepository {
	return &PostgresRepository{exec: exec, builder: db.Builder()}
}

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	query, args, err := r.builder.
		Select("id", "user_id", "expires_at", "revoked_at", "last_seen_at", "ip_address", "wants_url", "created_at").
		From(sessionsTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select session sql: %w", err)
	}
	var s domain.Session
	if err := r.exec.QueryRow(ctx, query, args...).Scan(
		&s.ID, &s.UserID, &s.ExpiresAt, &s.RevokedAt, &s.LastSeenAt, &s.IPAddress, &s.WantsURL, &s.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select session: %w", err)
	}
	return &s, nil
}

func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	query, args, err := r.builder.Insert(sessionsTable).
		Columns("id", "user_id", "expires_at", "ip_address", "wants_url", "created_at").
		Values(s.ID, s.UserID, s.ExpiresAt, s.IPAddress, s.WantsURL, s.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert session sql: %w", err)
	}
	if _, err := r.exec.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Revoke marks the session revoked. Revoking twice keeps the first timestamp.
func (r *PostgresRepository) Revoke(ctx context.Context, id string) error {
	return r.update(ctx, id, sq.Eq{"revoked_at": nil}, "revoked_at", time.Now().UTC())
}

func (r *PostgresRepository) UpdateLastSeen(ctx context.Context, id string, at time.Time) error {
	return r.update(ctx, id, nil, "last_seen_at", at)
}

func (r *PostgresRepository) SetWantsURL(ctx context.Context, id, url string) error {
	return r.update(ctx, id, nil, "wants_url", url)
}

func (r *PostgresRepository) update(ctx context.Context, id string, extra sq.Sqlizer, column string, value any) error {
	b := r.builder.Update(sessionsTable).Set(column, value).Where(sq.Eq{"id": id})
	if extra != nil {
		b = b.Where(extra)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build update session sql: %w", err)
	}
	if _, err := r.exec.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update session %s: %w", column, err)
	}
	return nil
}
