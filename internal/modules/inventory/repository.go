package inventory

import (
	"context"

	"github.com/google/uuid"
)

// Stock is the view of product stock available inside a unit of work. Rows
// returned by ForUpdate stay locked until the unit of work ends.
type Stock interface {
	// ForUpdate locks and returns the levels of the products that exist among ids.
	ForUpdate(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Level, error)
	// Apply adds the deltas to a product's stock and popularity.
	Apply(ctx context.Context, productID uuid.UUID, stockDelta, popularityDelta int) error
}
