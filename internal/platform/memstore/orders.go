package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wyna/storefront/internal/modules/inventory"
	"github.com/wyna/storefront/internal/modules/order"
)

func (s *Store) Create(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[o.ID]; ok {
		return fmt.Errorf("order %s already exists", o.ID)
	}
	for _, other := range s.orders {
		if other.OrderNumber == o.OrderNumber {
			return fmt.Errorf("order number %s already exists", o.OrderNumber)
		}
	}
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	s.orders[o.ID] = o.Clone()
	return nil
}

func (s *Store) Get(_ context.Context, id uuid.UUID) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o.Clone(), nil
}

func (s *Store) GetByNumber(_ context.Context, number string) (*order.Order, error) {
	return s.find(func(o *order.Order) bool { return o.OrderNumber == number })
}

func (s *Store) GetByGatewayOrderID(_ context.Context, gatewayOrderID string) (*order.Order, error) {
	if gatewayOrderID == "" {
		return nil, order.ErrNotFound
	}
	return s.find(func(o *order.Order) bool { return o.GatewayOrderID == gatewayOrderID })
}

func (s *Store) find(match func(*order.Order) bool) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.orders {
		if match(o) {
			return o.Clone(), nil
		}
	}
	return nil, order.ErrNotFound
}

func (s *Store) List(_ context.Context, f order.ListFilter) ([]*order.Order, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	search := strings.ToLower(f.Search)
	var matched []*order.Order
	for _, o := range s.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.PaymentStatus != "" && o.PaymentStatus != f.PaymentStatus {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(o.OrderNumber), search) &&
			!strings.Contains(strings.ToLower(o.CustomerEmail), search) &&
			!strings.Contains(strings.ToLower(o.CustomerName), search) {
			continue
		}
		matched = append(matched, o.Clone())
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return page(matched, f.Page, f.Limit), len(matched), nil
}

func (s *Store) Stats(_ context.Context, since time.Time) (*order.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &order.Stats{ByStatus: map[order.Status]int{}, Revenue: decimal.Zero}
	for _, o := range s.orders {
		st.Total++
		st.ByStatus[o.Status]++
		if o.Status != order.StatusCancelled {
			st.Revenue = st.Revenue.Add(o.TotalAmount)
		}
		if !o.CreatedAt.Before(since) {
			st.RecentOrders++
		}
	}
	return st, nil
}

func (s *Store) SetGatewayOrderID(_ context.Context, id uuid.UUID, gatewayOrderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	for oid, other := range s.orders {
		if oid != id && gatewayOrderID != "" && other.GatewayOrderID == gatewayOrderID {
			return fmt.Errorf("gateway order %s already attached", gatewayOrderID)
		}
	}
	o.GatewayOrderID = gatewayOrderID
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) MarkPaymentFailed(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	if o.PaymentStatus != order.PaymentCompleted {
		o.PaymentStatus = order.PaymentFailed
		o.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// Mutate runs fn on a copy of the order while holding the store lock. Stock
// changes are staged and applied only if fn succeeds.
func (s *Store) Mutate(ctx context.Context, id uuid.UUID, fn order.MutateFunc) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	working := cur.Clone()
	st := &stagedStock{store: s, deltas: map[uuid.UUID]delta{}}
	if err := fn(ctx, working, st); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	st.commit(now)
	working.UpdatedAt = now
	s.orders[id] = working.Clone()
	return working, nil
}

type delta struct{ stock, popularity int }

// stagedStock reads through to the store and buffers writes. The store
// lock is held by Mutate for its whole lifetime.
type stagedStock struct {
	store  *Store
	deltas map[uuid.UUID]delta
}

func (st *stagedStock) ForUpdate(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*inventory.Level, error) {
	out := make(map[uuid.UUID]*inventory.Level, len(ids))
	for _, id := range ids {
		p, ok := st.store.products[id]
		if !ok {
			continue
		}
		d := st.deltas[id]
		out[id] = &inventory.Level{
			ProductID:  id,
			Name:       p.Name,
			Status:     p.Status,
			Stock:      p.Stock + d.stock,
			Popularity: p.Popularity + d.popularity,
		}
	}
	return out, nil
}

func (st *stagedStock) Apply(_ context.Context, id uuid.UUID, stockDelta, popularityDelta int) error {
	p, ok := st.store.products[id]
	if !ok {
		return fmt.Errorf("update stock of %s: no such product", id)
	}
	d := st.deltas[id]
	d.stock += stockDelta
	d.popularity += popularityDelta
	if p.Stock+d.stock < 0 {
		return fmt.Errorf("update stock of %s: stock would go negative", id)
	}
	st.deltas[id] = d
	return nil
}

func (st *stagedStock) commit(now time.Time) {
	for id, d := range st.deltas {
		p := st.store.products[id]
		p.Stock += d.stock
		p.Popularity += d.popularity
		p.UpdatedAt = now
	}
}
