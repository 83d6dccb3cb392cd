package memstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyna/storefront/internal/modules/catalog"
	"github.com/wyna/storefront/internal/modules/inventory"
	"github.com/wyna/storefront/internal/modules/order"
	"github.com/wyna/storefront/internal/platform/memstore"
)

func newProduct(t *testing.T, s *memstore.Store, slug, price string, stock int) *catalog.Product {
	t.Helper()
	p := &catalog.Product{
		ID:     uuid.New(),
		Name:   slug,
		Slug:   slug,
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
		Status: catalog.StatusPublished,
		Images: []catalog.Image{},
		Tags:   []string{},
	}
	require.NoError(t, s.CreateProduct(context.Background(), p))
	return p
}

func newOrder(t *testing.T, s *memstore.Store, items ...order.LineItem) *order.Order {
	t.Helper()
	o := &order.Order{
		ID:            uuid.New(),
		OrderNumber:   "ORD-20260101-" + uuid.NewString()[:8],
		CustomerName:  "Asha Rao",
		CustomerEmail: "asha@example.com",
		Items:         items,
		Status:        order.StatusPending,
		PaymentStatus: order.PaymentPending,
		PaymentMethod: order.MethodOnline,
		TotalAmount:   decimal.NewFromInt(100),
	}
	require.NoError(t, s.Create(context.Background(), o))
	return o
}

func stockOf(t *testing.T, s *memstore.Store, id uuid.UUID) int {
	t.Helper()
	p, err := s.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestMutate_CommitsStagedStockOnSuccess(t *testing.T) {
	s := memstore.New()
	p := newProduct(t, s, "silk", "100", 5)
	o := newOrder(t, s, order.LineItem{ProductID: p.ID, Name: "silk", Quantity: 2})

	got, err := s.Mutate(context.Background(), o.ID, func(ctx context.Context, cur *order.Order, st inventory.Stock) error {
		levels, err := st.ForUpdate(ctx, []uuid.UUID{p.ID})
		if err != nil {
			return err
		}
		assert.Equal(t, 5, levels[p.ID].Stock)
		if err := st.Apply(ctx, p.ID, -2, 2); err != nil {
			return err
		}
		levels, err = st.ForUpdate(ctx, []uuid.UUID{p.ID})
		if err != nil {
			return err
		}
		assert.Equal(t, 3, levels[p.ID].Stock, "staged writes are visible inside the unit")
		cur.Status = order.StatusConfirmed
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, got.Status)
	assert.Equal(t, 3, stockOf(t, s, p.ID))
	stored, err := s.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, stored.Status)
}

func TestMutate_RollsBackOnError(t *testing.T) {
	s := memstore.New()
	p := newProduct(t, s, "silk", "100", 5)
	o := newOrder(t, s, order.LineItem{ProductID: p.ID, Quantity: 2})
	boom := errors.New("boom")

	_, err := s.Mutate(context.Background(), o.ID, func(ctx context.Context, cur *order.Order, st inventory.Stock) error {
		require.NoError(t, st.Apply(ctx, p.ID, -2, 2))
		cur.Status = order.StatusConfirmed
		cur.Items[0].Quantity = 99
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 5, stockOf(t, s, p.ID))
	stored, err := s.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, stored.Status)
	assert.Equal(t, 2, stored.Items[0].Quantity)
}

func TestMutate_RefusesNegativeStock(t *testing.T) {
	s := memstore.New()
	p := newProduct(t, s, "silk", "100", 1)
	o := newOrder(t, s)

	_, err := s.Mutate(context.Background(), o.ID, func(ctx context.Context, _ *order.Order, st inventory.Stock) error {
		return st.Apply(ctx, p.ID, -2, 0)
	})

	assert.Error(t, err)
	assert.Equal(t, 1, stockOf(t, s, p.ID))
}

func TestMutate_UnknownOrder(t *testing.T) {
	s := memstore.New()

	_, err := s.Mutate(context.Background(), uuid.New(), func(context.Context, *order.Order, inventory.Stock) error {
		t.Fatal("fn must not run")
		return nil
	})

	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestGetReturnsCopies(t *testing.T) {
	s := memstore.New()
	p := newProduct(t, s, "silk", "100", 5)
	o := newOrder(t, s, order.LineItem{ProductID: p.ID, Quantity: 1})

	got, err := s.Get(context.Background(), o.ID)
	require.NoError(t, err)
	got.Items[0].Quantity = 42
	got.Status = order.StatusCancelled

	again, err := s.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Items[0].Quantity)
	assert.Equal(t, order.StatusPending, again.Status)
}

func TestUpdateProduct_KeepsStockAndPopularity(t *testing.T) {
	s := memstore.New()
	p := newProduct(t, s, "silk", "100", 5)
	o := newOrder(t, s)
	_, err := s.Mutate(context.Background(), o.ID, func(ctx context.Context, _ *order.Order, st inventory.Stock) error {
		return st.Apply(ctx, p.ID, -1, 1)
	})
	require.NoError(t, err)

	edit := *p
	edit.Price = decimal.NewFromInt(150)
	edit.Stock = 500
	edit.Popularity = 0
	require.NoError(t, s.UpdateProduct(context.Background(), &edit))

	got, err := s.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(150).Equal(got.Price))
	assert.Equal(t, 4, got.Stock)
	assert.Equal(t, 1, got.Popularity)
}

func TestCreateProduct_DuplicateSlug(t *testing.T) {
	s := memstore.New()
	newProduct(t, s, "silk", "100", 5)

	err := s.CreateProduct(context.Background(), &catalog.Product{ID: uuid.New(), Name: "Silk", Slug: "silk"})

	assert.ErrorIs(t, err, catalog.ErrDuplicate)
}

func TestListProducts_FiltersSortsAndPages(t *testing.T) {
	s := memstore.New()
	newProduct(t, s, "cotton", "300", 5)
	newProduct(t, s, "silk", "900", 5)
	newProduct(t, s, "linen", "600", 5)
	draft := &catalog.Product{ID: uuid.New(), Name: "Draft", Slug: "draft", Price: decimal.NewFromInt(10), Status: catalog.StatusDraft}
	require.NoError(t, s.CreateProduct(context.Background(), draft))

	published := catalog.StatusPublished
	got, total, err := s.ListProducts(context.Background(), catalog.ProductFilter{
		Status: &published, Sort: catalog.SortPriceAsc, Page: 1, Limit: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, got, 2)
	assert.Equal(t, "cotton", got[0].Slug)
	assert.Equal(t, "linen", got[1].Slug)

	got, _, err = s.ListProducts(context.Background(), catalog.ProductFilter{
		Status: &published, Sort: catalog.SortPriceAsc, Page: 2, Limit: 2,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "silk", got[0].Slug)

	got, total, err = s.ListProducts(context.Background(), catalog.ProductFilter{Search: "LIN"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "linen", got[0].Slug)
}

func TestDeleteCategory_DetachesProducts(t *testing.T) {
	s := memstore.New()
	c := &catalog.Category{ID: uuid.New(), Name: "Sarees", Slug: "sarees", Active: true}
	require.NoError(t, s.CreateCategory(context.Background(), c))
	p := &catalog.Product{ID: uuid.New(), Name: "Silk", Slug: "silk", CategoryID: &c.ID, Status: catalog.StatusPublished}
	require.NoError(t, s.CreateProduct(context.Background(), p))

	require.NoError(t, s.DeleteCategory(context.Background(), c.ID))

	got, err := s.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
	assert.ErrorIs(t, s.DeleteCategory(context.Background(), c.ID), catalog.ErrNotFound)
}

func TestMarkPaymentFailed_NeverDowngradesCompleted(t *testing.T) {
	s := memstore.New()
	o := newOrder(t, s)
	_, err := s.Mutate(context.Background(), o.ID, func(_ context.Context, cur *order.Order, _ inventory.Stock) error {
		cur.PaymentStatus = order.PaymentCompleted
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, s.MarkPaymentFailed(context.Background(), o.ID))

	got, err := s.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentCompleted, got.PaymentStatus)
}

func TestSetGatewayOrderID(t *testing.T) {
	s := memstore.New()
	a := newOrder(t, s)
	b := newOrder(t, s)

	require.NoError(t, s.SetGatewayOrderID(context.Background(), a.ID, "order_X"))
	assert.Error(t, s.SetGatewayOrderID(context.Background(), b.ID, "order_X"))

	got, err := s.GetByGatewayOrderID(context.Background(), "order_X")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = s.GetByGatewayOrderID(context.Background(), "")
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestListOrders_SearchAndStatus(t *testing.T) {
	s := memstore.New()
	a := newOrder(t, s)
	newOrder(t, s)
	_, err := s.Mutate(context.Background(), a.ID, func(_ context.Context, cur *order.Order, _ inventory.Stock) error {
		cur.Status = order.StatusCancelled
		return nil
	})
	require.NoError(t, err)

	got, total, err := s.List(context.Background(), order.ListFilter{Status: order.StatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, a.ID, got[0].ID)

	got, total, err = s.List(context.Background(), order.ListFilter{Search: a.OrderNumber})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, a.ID, got[0].ID)

	_, total, err = s.List(context.Background(), order.ListFilter{Search: "ASHA"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}
