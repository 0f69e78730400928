package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"psup-auth/internal/db"
	"psup-auth/internal/role/domain"
)

const (
	rolesTable       = "roles"
	assignmentsTable = "role_assignments"
)

type PostgresRepository struct {
	exec    db.Executor
	builder sq.StatementBuilderType
}

// NewPostgresRepository returns a role repository backed by a pgx pool, transaction or mock.
func NewPostgresRepository(exec db.Executor) *PostgresRepository {
	return &PostgresRepository{exec: exec, builder: db.Builder()}
}

// GetByID returns the role for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Role, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

// GetByShortname returns the role with the given shortname, or nil if not found.
func (r *PostgresRepository) GetByShortname(ctx context.Context, shortname string) (*domain.Role, error) {
	return r.getOne(ctx, sq.Eq{"shortname": shortname})
}

func (r *PostgresRepository) getOne(ctx context.Context, where sq.Eq) (*domain.Role, error) {
	query, args, err := r.builder.Select("id", "shortname", "name").From(rolesTable).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select role sql: %w", err)
	}
	var role domain.Role
	if err := r.exec.QueryRow(ctx, query, args...).Scan(&role.ID, &role.Shortname, &role.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select role: %w", err)
	}
	return &role, nil
}

func (r *PostgresRepository) Create(ctx context.Context, role *domain.Role) (*domain.Role, error) {
	query, args, err := r.builder.Insert(rolesTable).
		Columns("shortname", "name").
		Values(role.Shortname, role.Name).
		Suffix("ON CONFLICT (shortname) DO UPDATE SET shortname = EXCLUDED.shortname RETURNING id, shortname, name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert role sql: %w", err)
	}
	var out domain.Role
	if err := r.exec.QueryRow(ctx, query, args...).Scan(&out.ID, &out.Shortname, &out.Name); err != nil {
		return nil, fmt.Errorf("insert role: %w", err)
	}
	return &out, nil
}

func (r *PostgresRepository) Assign(ctx context.Context, a *domain.Assignment) error {
	query, args, err := r.builder.Insert(assignmentsTable).
		Columns("role_id", "user_id", "context_id", "created_at").
		Values(a.RoleID, a.UserID, a.ContextID, a.CreatedAt).
		Suffix("ON CONFLICT (role_id, user_id, context_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert role assignment sql: %w", err)
	}
	if _, err := r.exec.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert role assignment: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListAssigned(ctx context.Context, userID, contextID string) ([]*domain.Role, error) {
	query, args, err := r.builder.Select("r.id", "r.shortname", "r.name").
		From(rolesTable + " r").
		Join(assignmentsTable + " a ON a.role_id = r.id").
		Where(sq.Eq{"a.user_id": userID, "a.context_id": contextID}).
		OrderBy("r.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list assigned roles sql: %w", err)
	}
	rows, err := r.exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assigned roles: %w", err)
	}
	defer rows.Close()

	var out []*domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Shortname, &role.Name); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		out = append(out, &role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}
	return out, nil
}
