package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wyna/storefront/internal/modules/inventory"
)

// MutateFunc changes a locked order. Stock gives access to product stock in
// the same unit of work. Returning an error discards every change.
type MutateFunc func(ctx context.Context, o *Order, stock inventory.Stock) error

// Repository defines data access for orders.
type Repository interface {
	// Create persists a new order.
	Create(ctx context.Context, o *Order) error

	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Order, error)
	List(ctx context.Context, f ListFilter) ([]*Order, int, error)

	// Stats aggregates order counts and revenue; recent counts orders
	// created at or after since.
	Stats(ctx context.Context, since time.Time) (*Stats, error)

	// SetGatewayOrderID records the gateway order minted for a pending order.
	SetGatewayOrderID(ctx context.Context, id uuid.UUID, gatewayOrderID string) error

	// MarkPaymentFailed flags the payment as failed unless it has already
	// completed.
	MarkPaymentFailed(ctx context.Context, id uuid.UUID) error

	// Mutate locks the order for the duration of fn and saves the order and
	// any stock changes in one commit. Concurrent calls for the same order
	// run one after another.
	Mutate(ctx context.Context, id uuid.UUID, fn MutateFunc) (*Order, error)
}
