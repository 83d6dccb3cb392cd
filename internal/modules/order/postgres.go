package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wyna/storefront/internal/modules/inventory"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const orderColumns = `id,order_number,customer_name,customer_email,customer_phone,items,shipping_address,
	subtotal,tax,shipping_cost,total_amount,currency,payment_method,payment_provider,payment_status,
	order_status,gateway_order_id,gateway_payment_id,gateway_signature,inventory_adjusted_at,
	tracking_number,notes,cancellation_reason,paid_at,confirmed_at,cancelled_at,delivered_at,
	created_at,updated_at`

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *postgresRepo) Create(ctx context.Context, o *Order) error {
	items, addr, err := encodeDocuments(o)
	if err != nil {
		return err
	}
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO orders
		  (id,order_number,customer_name,customer_email,customer_phone,items,shipping_address,
		   subtotal,tax,shipping_cost,total_amount,currency,payment_method,payment_provider,
		   payment_status,order_status,gateway_order_id,notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING created_at, updated_at`,
		o.ID, o.OrderNumber, o.CustomerName, o.CustomerEmail, o.CustomerPhone, items, addr,
		o.Subtotal, o.Tax, o.ShippingCost, o.TotalAmount, o.Currency, o.PaymentMethod,
		o.PaymentProvider, o.PaymentStatus, o.Status, nullString(o.GatewayOrderID), o.Notes,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *postgresRepo) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	return scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id).Scan)
}

func (r *postgresRepo) GetByNumber(ctx context.Context, number string) (*Order, error) {
	return scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_number=$1`, number).Scan)
}

func (r *postgresRepo) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Order, error) {
	return scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE gateway_order_id=$1`, gatewayOrderID).Scan)
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]*Order, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	n := 1
	if f.Status != "" {
		where += fmt.Sprintf(` AND order_status=$%d`, n)
		args = append(args, f.Status)
		n++
	}
	if f.PaymentStatus != "" {
		where += fmt.Sprintf(` AND payment_status=$%d`, n)
		args = append(args, f.PaymentStatus)
		n++
	}
	if f.Search != "" {
		where += fmt.Sprintf(` AND (order_number ILIKE $%d OR customer_email ILIKE $%d OR customer_name ILIKE $%d)`, n, n, n)
		args = append(args, "%"+f.Search+"%")
		n++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, n, n+1)
	args = append(args, f.Limit, f.offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

func (r *postgresRepo) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	st := &Stats{ByStatus: map[Status]int{}, Revenue: decimal.Zero}

	rows, err := r.db.QueryContext(ctx, `SELECT order_status, COUNT(*) FROM orders GROUP BY order_status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s Status
		var c int
		if err := rows.Scan(&s, &c); err != nil {
			return nil, err
		}
		st.ByStatus[s] = c
		st.Total += c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total_amount) FILTER (WHERE order_status <> 'cancelled'), 0),
		       COUNT(*) FILTER (WHERE created_at >= $1)
		FROM orders`, since).Scan(&st.Revenue, &st.RecentOrders)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (r *postgresRepo) SetGatewayOrderID(ctx context.Context, id uuid.UUID, gatewayOrderID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET gateway_order_id=$1, updated_at=NOW() WHERE id=$2`, gatewayOrderID, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *postgresRepo) MarkPaymentFailed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE orders SET payment_status='failed', updated_at=NOW()
		WHERE id=$1 AND payment_status <> 'completed'`, id)
	return err
}

// Mutate holds a row lock on the order for the whole transaction. A second
// confirmation for the same order blocks here and then sees the committed
// inventory marker.
func (r *postgresRepo) Mutate(ctx context.Context, id uuid.UUID, fn MutateFunc) (*Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	o, err := scanOrder(tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id=$1 FOR UPDATE`, id).Scan)
	if err != nil {
		return nil, err
	}
	if err := fn(ctx, o, inventory.NewPostgresStock(tx)); err != nil {
		return nil, err
	}
	if err := update(ctx, tx, o); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order %s: %w", o.OrderNumber, err)
	}
	return o, nil
}

// update writes the mutable columns. Items and totals are fixed at placement.
func update(ctx context.Context, q queryer, o *Order) error {
	return q.QueryRowContext(ctx, `
		UPDATE orders
		SET payment_provider=$1, payment_status=$2, order_status=$3, gateway_order_id=$4,
		    gateway_payment_id=$5, gateway_signature=$6, inventory_adjusted_at=$7,
		    tracking_number=$8, cancellation_reason=$9, paid_at=$10, confirmed_at=$11,
		    cancelled_at=$12, delivered_at=$13, updated_at=NOW()
		WHERE id=$14
		RETURNING updated_at`,
		o.PaymentProvider, o.PaymentStatus, o.Status, nullString(o.GatewayOrderID),
		o.GatewayPaymentID, o.GatewaySignature, o.InventoryAdjustedAt,
		o.TrackingNumber, o.CancellationReason, o.PaidAt, o.ConfirmedAt,
		o.CancelledAt, o.DeliveredAt, o.ID,
	).Scan(&o.UpdatedAt)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func scanOrder(scan func(...interface{}) error) (*Order, error) {
	o := &Order{}
	var items, addr []byte
	var gatewayOrderID sql.NullString
	var adjustedAt, paidAt, confirmedAt, cancelledAt, deliveredAt sql.NullTime
	err := scan(&o.ID, &o.OrderNumber, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&items, &addr, &o.Subtotal, &o.Tax, &o.ShippingCost, &o.TotalAmount, &o.Currency,
		&o.PaymentMethod, &o.PaymentProvider, &o.PaymentStatus, &o.Status, &gatewayOrderID,
		&o.GatewayPaymentID, &o.GatewaySignature, &adjustedAt, &o.TrackingNumber, &o.Notes,
		&o.CancellationReason, &paidAt, &confirmedAt, &cancelledAt, &deliveredAt,
		&o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items of %s: %w", o.OrderNumber, err)
	}
	if err := json.Unmarshal(addr, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("decode address of %s: %w", o.OrderNumber, err)
	}
	o.GatewayOrderID = gatewayOrderID.String
	o.InventoryAdjustedAt = timePtr(adjustedAt)
	o.PaidAt = timePtr(paidAt)
	o.ConfirmedAt = timePtr(confirmedAt)
	o.CancelledAt = timePtr(cancelledAt)
	o.DeliveredAt = timePtr(deliveredAt)
	return o, nil
}

func encodeDocuments(o *Order) (items, addr []byte, err error) {
	if items, err = json.Marshal(o.Items); err != nil {
		return nil, nil, fmt.Errorf("encode items: %w", err)
	}
	if addr, err = json.Marshal(o.ShippingAddress); err != nil {
		return nil, nil, fmt.Errorf("encode address: %w", err)
	}
	return items, addr, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
