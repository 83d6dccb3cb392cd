package payment

import "context"

// EventLog keeps verified webhook deliveries for audit.
type EventLog interface {
	Record(ctx context.Context, e *Event) error
	List(ctx context.Context, gatewayOrderID string, limit int) ([]*Event, error)
}
