package repository

import (
	"context"
	"fmt"
	"sort"

	sq "github.com/Masterminds/squirrel"

	"psup-auth/internal/db"
	"psup-auth/internal/settings"
)

const settingsTable = "plugin_settings"

type PostgresRepository struct {
	exec    db.Executor
	builder sq.StatementBuilderType
}

// NewPostgresRepository returns a plugin settings repository backed by a pgx pool, transaction or mock.
func NewPostgresRepository(exec db.Executor) *PostgresRepository {
	return &PostgresRepository{exec: exec, builder: db.Builder()}
}

func (r *PostgresRepository) Load(ctx context.Context, defaults settings.Settings) (settings.Settings, error) {
	query, args, err := r.builder.Select("name", "value").From(settingsTable).ToSql()
	if err != nil {
		return defaults, fmt.Errorf("build select settings sql: %w", err)
	}
	rows, err := r.exec.Query(ctx, query, args...)
	if err != nil {
		return defaults, fmt.Errorf("select settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return defaults, fmt.Errorf("scan setting: %w", err)
		}
		values[name] = value
	}
	if err := rows.Err(); err != nil {
		return defaults, fmt.Errorf("iterate settings: %w", err)
	}
	return defaults.Apply(values), nil
}

func (r *PostgresRepository) Set(ctx context.Context, name, value string) error {
	return r.upsert(ctx, name, value, "ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value")
}

func (r *PostgresRepository) Seed(ctx context.Context, values map[string]string) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := r.upsert(ctx, name, values[name], "ON CONFLICT (name) DO NOTHING"); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresRepository) upsert(ctx context.Context, name, value, conflict string) error {
	query, args, err := r.builder.Insert(settingsTable).
		Columns("name", "value").
		Values(name, value).
		Suffix(conflict).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert setting sql: %w", err)
	}
	if _, err := r.exec.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert setting %s: %w", name, err)
	}
	return nil
}
