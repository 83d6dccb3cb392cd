package inventory

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/wyna/storefront/internal/modules/catalog"
)

var ErrInsufficientStock = errors.New("insufficient stock")

// Line is one product/quantity pair that moves stock.
type Line struct {
	ProductID uuid.UUID
	Name      string
	Quantity  int
}

// Level is the locked stock row of a product.
type Level struct {
	ProductID  uuid.UUID
	Name       string
	Status     catalog.Status
	Stock      int
	Popularity int
}

// Subject is something whose confirmation consumes stock exactly once.
// An order implements it.
type Subject interface {
	InventoryLines() []Line
	InventoryAdjusted() bool
	MarkInventoryAdjusted(at time.Time)
}
