package inventory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type txStock struct{ tx *sql.Tx }

// NewPostgresStock binds stock access to an open transaction. Locks are taken
// in id order so concurrent confirmations cannot deadlock on each other.
func NewPostgresStock(tx *sql.Tx) Stock { return &txStock{tx: tx} }

func (s *txStock) ForUpdate(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Level, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	rows, err := s.tx.QueryContext(ctx, `
		SELECT id, name, status, stock, popularity
		FROM products WHERE id = ANY($1::uuid[])
		ORDER BY id
		FOR UPDATE`, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	defer rows.Close()

	levels := make(map[uuid.UUID]*Level, len(ids))
	for rows.Next() {
		l := &Level{}
		if err := rows.Scan(&l.ProductID, &l.Name, &l.Status, &l.Stock, &l.Popularity); err != nil {
			return nil, err
		}
		levels[l.ProductID] = l
	}
	return levels, rows.Err()
}

func (s *txStock) Apply(ctx context.Context, productID uuid.UUID, stockDelta, popularityDelta int) error {
	res, err := s.tx.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + $1, popularity = popularity + $2, updated_at = NOW()
		WHERE id = $3`,
		stockDelta, popularityDelta, productID)
	if err != nil {
		return fmt.Errorf("update stock of %s: %w", productID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update stock of %s: no such product", productID)
	}
	return nil
}
