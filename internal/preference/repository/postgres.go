package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"psup-auth/internal/db"
)

const preferencesTable = "user_preferences"

type PostgresRepository struct {
	exec    db.Executor
	builder sq.StatementBuilderType
}

// NewPostgresRepository returns a preference repository backed by a pgx pool, transaction or mock.
func NewPostgresRepository(exec db.Executor) *PostgresRepository {
	return &PostgresRepository{exec: exec, builder: db.Builder()}
}

func (r *PostgresRepository) Get(ctx context.Context, userID, name string) (string, bool, error) {
	query, args, err := r.builder.Select("value").From(preferencesTable).
		Where(sq.Eq{"user_id": userID, "name": name}).ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build select preference sql: %w", err)
	}
	var value string
	if err := r.exec.QueryRow(ctx, query, args...).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("select preference: %w", err)
	}
	return value, true, nil
}

func (r *PostgresRepository) Set(ctx context.Context, userID, name, value string) error {
	query, args, err := r.builder.Insert(preferencesTable).
		Columns("user_id", "name", "value").
		Values(userID, name, value).
		Suffix("ON CONFLICT (user_id, name) DO UPDATE SET value = EXCLUDED.value").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert preference sql: %w", err)
	}
	if _, err := r.exec.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert preference: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Unset(ctx context.Context, userID, name string) error {
	query, args, err := r.builder.Delete(preferencesTable).
		Where(sq.Eq{"user_id": userID, "name": name}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete preference sql: %w", err)
	}
	if _, err := r.exec.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("delete preference: %w", err)
	}
	return nil
}
