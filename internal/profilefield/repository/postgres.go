package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"psup-auth/internal/db"
	"psup-auth/internal/profilefield/domain"
)

const (
	fieldsTable = "user_info_fields"
	dataTable   = "user_info_data"
)

// ErrFieldNotProvisioned is returned by Set when the field definition does not exist yet.
var ErrFieldNotProvisioned = errors.New("profile field not provisioned")

// shortname maps typed field keys to persisted shortnames.
func shortname(f domain.Field) (string, error) {
	switch f {
	case domain.FieldPsupID:
		return "psupid", nil
	case domain.FieldPsupSession:
		return "psupsession", nil
	default:
		return "", fmt.Errorf("unknown profile field %d", int(f))
	}
}

type PostgresRepository struct {
	exec    db.Executor
	builder sq.StatementBuilderType
}

// NewPostgresRepository returns a profile field repository backed by a pgx pool, transaction or mock.
func NewPostgresRepository(exec db.Executor) *PostgresRepository {
	return &PostgresRepository{exec: exec, builder: db.Builder()}
}

func (r *PostgresRepository) EnsureFields(ctx context.Context) error {
	for _, def := range domain.Definitions() {
		name, err := shortname(def.Field)
		if err != nil {
			return err
		}
		query, args, err := r.builder.Insert(fieldsTable).
			Columns("shortname", "name", "datatype", "category", "visible", "signup", "required").
			Values(name, def.Name, def.Datatype, def.Category, def.Visible, def.Signup, def.Required).
			Suffix("ON CONFLICT (shortname) DO UPDATE SET name = EXCLUDED.name, datatype = EXCLUDED.datatype, " +
				"category = EXCLUDED.category, visible = EXCLUDED.visible, signup = EXCLUDED.signup, required = EXCLUDED.required").
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert profile field sql: %w", err)
		}
		if _, err := r.exec.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert profile field %s: %w", name, err)
		}
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID string, field domain.Field) (string, bool, error) {
	name, err := shortname(field)
	if err != nil {
		return "", false, err
	}
	query, args, err := r.builder.Select("d.data").
		From(dataTable + " d").
		Join(fieldsTable + " f ON f.id = d.field_id").
		Where(sq.Eq{"d.user_id": userID, "f.shortname": name}).
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build select profile data sql: %w", err)
	}
	var value string
	if err := r.exec.QueryRow(ctx, query, args...).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("select profile data: %w", err)
	}
	return value, true, nil
}

func (r *PostgresRepository) Set(ctx context.Context, userID string, field domain.Field, value string) error {
	name, err := shortname(field)
	if err != nil {
		return err
	}
	sel := sq.Select().
		Column("?", userID).
		Column("id").
		Column("?", value).
		From(fieldsTable).
		Where(sq.Eq{"shortname": name})
	query, args, err := r.builder.Insert(dataTable).
		Columns("user_id", "field_id", "data").
		Select(sel).
		Suffix("ON CONFLICT (user_id, field_id) DO UPDATE SET data = EXCLUDED.data").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert profile data sql: %w", err)
	}
	tag, err := r.exec.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("upsert profile data: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrFieldNotProvisioned, name)
	}
	return nil
}

func (r *PostgresRepository) FindUserIDByPsupID(ctx context.Context, auth, psupID, session string) (string, error) {
	query, args, err := r.builder.Select("u.id").
		From("users u").
		Join(dataTable+" idd ON idd.user_id = u.id").
		Join(fieldsTable+" idf ON idf.id = idd.field_id AND idf.shortname = ?", "psupid").
		Join(dataTable+" sd ON sd.user_id = u.id").
		Join(fieldsTable+" sf ON sf.id = sd.field_id AND sf.shortname = ?", "psupsession").
		Where(sq.Eq{"u.auth": auth, "idd.data": psupID, "sd.data": session}).
		Limit(1).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build find by psupid sql: %w", err)
	}
	var id string
	if err := r.exec.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("find user by psupid: %w", err)
	}
	return id, nil
}
