package payment

import (
	"context"
	"database/sql"
	"fmt"
)

type postgresEventLog struct{ db *sql.DB }

func NewPostgresEventLog(db *sql.DB) EventLog { return &postgresEventLog{db: db} }

func (r *postgresEventLog) Record(ctx context.Context, e *Event) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO payment_events
		  (id, delivery_id, event_type, gateway_order_id, gateway_payment_id, outcome, payload)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING received_at`,
		e.ID, e.DeliveryID, e.Type, e.GatewayOrderID, e.GatewayPaymentID, e.Outcome, []byte(e.Payload),
	).Scan(&e.ReceivedAt)
	if err != nil {
		return fmt.Errorf("record payment event: %w", err)
	}
	return nil
}

func (r *postgresEventLog) List(ctx context.Context, gatewayOrderID string, limit int) ([]*Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, delivery_id, event_type, gateway_order_id, gateway_payment_id, outcome, payload, received_at
		FROM payment_events
		WHERE ($1 = '' OR gateway_order_id = $1)
		ORDER BY received_at DESC
		LIMIT $2`, gatewayOrderID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		var e Event
		var payload []byte
		if err := rows.Scan(&e.ID, &e.DeliveryID, &e.Type, &e.GatewayOrderID, &e.GatewayPaymentID,
			&e.Outcome, &payload, &e.ReceivedAt); err != nil {
			return nil, err
		}
		e.Payload = payload
		out = append(out, &e)
	}
	return out, rows.Err()
}
