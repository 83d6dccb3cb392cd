package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/wyna/storefront/internal/modules/catalog"
)

// AdjustOnce decrements stock and bumps popularity for every line of s, then
// stamps the adjustment marker. It does nothing when the marker is already
// set. All lines are checked before any row is written, so a failure leaves
// stock and the marker untouched. Callers run it inside the unit of work
// that owns st and persist s afterwards.
func AdjustOnce(ctx context.Context, st Stock, s Subject, at time.Time) error {
	if s.InventoryAdjusted() {
		return nil
	}
	lines := merge(s.InventoryLines())
	levels, err := st.ForUpdate(ctx, productIDs(lines))
	if err != nil {
		return err
	}

	for _, l := range lines {
		lvl, ok := levels[l.ProductID]
		if !ok {
			return fmt.Errorf("%w: %s no longer exists", catalog.ErrProductUnavailable, l.Name)
		}
		if lvl.Status != catalog.StatusPublished {
			return fmt.Errorf("%w: %s is not available", catalog.ErrProductUnavailable, lvl.Name)
		}
		if lvl.Stock < l.Quantity {
			return fmt.Errorf("%w: %s has %d left, %d requested",
				ErrInsufficientStock, lvl.Name, lvl.Stock, l.Quantity)
		}
	}

	for _, l := range lines {
		if err := st.Apply(ctx, l.ProductID, -l.Quantity, l.Quantity); err != nil {
			return err
		}
	}
	s.MarkInventoryAdjusted(at)
	return nil
}

// Restock gives the quantities of lines back to their products. Products
// that have since been removed are skipped.
func Restock(ctx context.Context, st Stock, lines []Line) error {
	lines = merge(lines)
	levels, err := st.ForUpdate(ctx, productIDs(lines))
	if err != nil {
		return err
	}
	for _, l := range lines {
		if _, ok := levels[l.ProductID]; !ok {
			continue
		}
		if err := st.Apply(ctx, l.ProductID, l.Quantity, 0); err != nil {
			return err
		}
	}
	return nil
}

// merge folds lines for the same product together and orders them by id.
func merge(lines []Line) []Line {
	index := make(map[uuid.UUID]int, len(lines))
	var out []Line
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		if i, ok := index[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(out)
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProductID.String() < out[j].ProductID.String()
	})
	return out
}

func productIDs(lines []Line) []uuid.UUID {
	ids := make([]uuid.UUID, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	return ids
}
