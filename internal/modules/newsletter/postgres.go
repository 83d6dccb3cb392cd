package newsletter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const subscriberColumns = `id,email,name,active,subscribed_at,unsubscribed_at,created_at,updated_at`

func (r *postgresRepo) Save(ctx context.Context, s *Subscriber) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO newsletter_subscribers (id,email,name,active,subscribed_at,unsubscribed_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE
		SET name=EXCLUDED.name, active=EXCLUDED.active, subscribed_at=EXCLUDED.subscribed_at,
		    unsubscribed_at=EXCLUDED.unsubscribed_at, updated_at=NOW()`,
		s.ID, s.Email, s.Name, s.Active, s.SubscribedAt, s.UnsubscribedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		// Two first-time subscribes for one address raced.
		return ErrAlreadySubscribed
	}
	if err != nil {
		return fmt.Errorf("save subscriber: %w", err)
	}
	return nil
}

func scanSubscriber(scan func(...interface{}) error) (*Subscriber, error) {
	s := &Subscriber{}
	var unsubscribed sql.NullTime
	err := scan(&s.ID, &s.Email, &s.Name, &s.Active, &s.SubscribedAt, &unsubscribed, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if unsubscribed.Valid {
		s.UnsubscribedAt = &unsubscribed.Time
	}
	return s, nil
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*Subscriber, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+subscriberColumns+` FROM newsletter_subscribers WHERE email=$1`, email)
	return scanSubscriber(row.Scan)
}

func (r *postgresRepo) List(ctx context.Context, f Filter) ([]*Subscriber, int, error) {
	var where []string
	var args []interface{}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("(email ILIKE $%d OR name ILIKE $%d)", len(args), len(args)))
	}
	if f.Active != nil {
		args = append(args, *f.Active)
		where = append(where, fmt.Sprintf("active=$%d", len(args)))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM newsletter_subscribers`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count subscribers: %w", err)
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT `+subscriberColumns+` FROM newsletter_subscribers%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var out []*Subscriber
	for rows.Next() {
		s, err := scanSubscriber(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *postgresRepo) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	st := &Stats{}
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE active),
		       COUNT(*) FILTER (WHERE NOT active),
		       COUNT(*) FILTER (WHERE created_at >= $1)
		FROM newsletter_subscribers`, since).Scan(&st.Total, &st.Active, &st.Unsubscribed, &st.Recent)
	if err != nil {
		return nil, fmt.Errorf("subscriber stats: %w", err)
	}
	return st, nil
}
