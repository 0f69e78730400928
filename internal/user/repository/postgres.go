package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"psup-auth/internal/db"
	"psup-auth/internal/user/domain"
)

const usersTable = "users"

var userColumns = []string{
	"id", "username", "email", "auth", "password_hash", "secret",
	"first_name", "last_name", "created_at", "updated_at",
}

type PostgresRepository struct {
	exec    db.Executor
	builder sq.StatementBuilderType
}

// NewPostgresRepository returns a user repository backed by a pgx pool, transaction or mock.
func NewPostgresRepository(exec db.Executor) *PostgresRepository {
	return &PostgresRepository{exec: exec, builder: db.Builder()}
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

// GetByUsername returns the user with the given username, or nil if not found.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, sq.Eq{"username": username})
}

// GetByEmail returns the first user with the given email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, sq.Eq{"email": email})
}

func (r *PostgresRepository) getOne(ctx context.Context, where sq.Eq) (*domain.User, error) {
	query, args, err := r.builder.Select(userColumns...).From(usersTable).Where(where).OrderBy("id").Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}
	u, err := scanUser(r.exec.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

// Create persists the user. The user must have ID set; it is not assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	query, args, err := r.builder.Insert(usersTable).Columns(userColumns...).Values(
		u.ID, u.Username, u.Email, u.Auth, u.PasswordHash, u.Secret,
		u.FirstName, u.LastName, u.CreatedAt, u.UpdatedAt,
	).ToSql()
	if err != nil {
		return fmt.Errorf("build insert user sql: %w", err)
	}
	if _, err := r.exec.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Update overwrites the mutable columns of an existing user. Missing rows are not an error.
func (r *PostgresRepository) Update(ctx context.Context, u *domain.User) error {
	query, args, err := r.builder.Update(usersTable).
		Set("username", u.Username).
		Set("email", u.Email).
		Set("auth", u.Auth).
		Set("password_hash", u.PasswordHash).
		Set("secret", u.Secret).
		Set("first_name", u.FirstName).
		Set("last_name", u.LastName).
		Set("updated_at", u.UpdatedAt).
		Where(sq.Eq{"id": u.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update user sql: %w", err)
	}
	if _, err := r.exec.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// ListByAuth returns all users with the given auth method ordered by id.
func (r *PostgresRepository) ListByAuth(ctx context.Context, auth string) ([]*domain.User, error) {
	query, args, err := r.builder.Select(userColumns...).From(usersTable).Where(sq.Eq{"auth": auth}).OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list users sql: %w", err)
	}
	rows, err := r.exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.Auth, &u.PasswordHash, &u.Secret,
		&u.FirstName, &u.LastName, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}
