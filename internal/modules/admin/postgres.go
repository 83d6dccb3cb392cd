package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type postgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a PostgreSQL admin repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

const adminColumns = `id, name, email, password_hash, active, last_login_at, created_at, updated_at`

func (r *postgresRepository) Create(ctx context.Context, a *Admin) error {
	query := `
		INSERT INTO admins (id, name, email, password_hash, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query, a.ID, a.Name, a.Email, a.PasswordHash, a.Active, a.CreatedAt, a.UpdatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (r *postgresRepository) Update(ctx context.Context, a *Admin) error {
	query := `
		UPDATE admins
		SET name = $1, password_hash = $2, active = $3, last_login_at = $4, updated_at = NOW()
		WHERE id = $5
	`
	res, err := r.db.ExecContext(ctx, query, a.Name, a.PasswordHash, a.Active, a.LastLoginAt, a.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAdmin(scan func(...interface{}) error) (*Admin, error) {
	a := &Admin{}
	var lastLogin sql.NullTime
	err := scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&a.PasswordHash,
		&a.Active,
		&lastLogin,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		a.LastLoginAt = &lastLogin.Time
	}
	return a, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Admin, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id)
	return scanAdmin(row.Scan)
}

func (r *postgresRepository) GetByEmail(ctx context.Context, email string) (*Admin, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admins WHERE email = $1`, email)
	return scanAdmin(row.Scan)
}

func (r *postgresRepository) List(ctx context.Context) ([]*Admin, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+adminColumns+` FROM admins ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	var out []*Admin
	for rows.Next() {
		a, err := scanAdmin(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
