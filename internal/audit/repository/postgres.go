package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"psup-auth/internal/audit/domain"
	"psup-auth/internal/db"
)

const auditTable = "audit_logs"

type PostgresRepository struct {
	exec    db.Executor
	builder sq.StatementBuilderType
}

// NewPostgresRepository returns an audit log repository backed by a pgx pool, transaction or mock.
func NewPostgresRepository(exec db.Executor) *PostgresRepository {
	return &PostgresRepository{exec: exec, builder: db.Builder()}
}

func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	query, args, err := r.builder.Insert(auditTable).
		Columns("id", "user_id", "action", "resource", "ip", "metadata", "created_at").
		Values(a.ID, a.UserID, a.Action, a.Resource, a.IP, a.Metadata, a.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert audit log sql: %w", err)
	}
	if _, err := r.exec.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit uint64) ([]*domain.AuditLog, error) {
	if limit == 0 {
		limit = 50
	}
	query, args, err := r.builder.
		Select("id", "user_id", "action", "resource", "ip", "metadata", "created_at").
		From(auditTable).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list audit logs sql: %w", err)
	}
	rows, err := r.exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var out []*domain.AuditLog
	for rows.Next() {
		var a domain.AuditLog
		if err := rows.Scan(&a.ID, &a.UserID, &a.Action, &a.Resource, &a.IP, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
