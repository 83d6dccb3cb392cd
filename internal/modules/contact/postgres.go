package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const inquiryColumns = `id,name,email,phone,subject,message,category,status,created_at,updated_at`

func (r *postgresRepo) Create(ctx context.Context, in *Inquiry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contact_inquiries (id,name,email,phone,subject,message,category,status,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		in.ID, in.Name, in.Email, in.Phone, in.Subject, in.Message, in.Category, in.Status,
		in.CreatedAt, in.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create inquiry: %w", err)
	}
	return nil
}

func scanInquiry(scan func(...interface{}) error) (*Inquiry, error) {
	in := &Inquiry{}
	err := scan(&in.ID, &in.Name, &in.Email, &in.Phone, &in.Subject, &in.Message,
		&in.Category, &in.Status, &in.CreatedAt, &in.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return in, err
}

func (r *postgresRepo) Get(ctx context.Context, id uuid.UUID) (*Inquiry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+inquiryColumns+` FROM contact_inquiries WHERE id=$1`, id)
	return scanInquiry(row.Scan)
}

func (r *postgresRepo) List(ctx context.Context, f Filter) ([]*Inquiry, int, error) {
	var where []string
	var args []interface{}
	if f.Status != nil {
		args = append(args, *f.Status)
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	if f.Category != nil {
		args = append(args, *f.Category)
		where = append(where, fmt.Sprintf("category=$%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(name ILIKE $%d OR email ILIKE $%d OR subject ILIKE $%d OR message ILIKE $%d)", n, n, n, n))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contact_inquiries`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count inquiries: %w", err)
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT `+inquiryColumns+` FROM contact_inquiries%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list inquiries: %w", err)
	}
	defer rows.Close()

	var out []*Inquiry
	for rows.Next() {
		in, err := scanInquiry(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, in)
	}
	return out, total, rows.Err()
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Inquiry, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE contact_inquiries SET status=$1, updated_at=NOW()
		WHERE id=$2
		RETURNING `+inquiryColumns, status, id)
	return scanInquiry(row.Scan)
}
