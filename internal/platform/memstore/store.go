// Package memstore keeps the catalog, orders and back-office records in
// process memory. It backs STORE_DRIVER=memory and the service tests. One
// mutex guards the catalog and orders, so an order mutation and the stock
// changes it makes commit together.
package memstore

import (
	"sync"

	"github.com/google/uuid"
	"github.com/wyna/storefront/internal/modules/catalog"
	"github.com/wyna/storefront/internal/modules/order"
)

type Store struct {
	mu         sync.Mutex
	products   map[uuid.UUID]*catalog.Product
	categories map[uuid.UUID]*catalog.Category
	orders     map[uuid.UUID]*order.Order
}

func New() *Store {
	return &Store{
		products:   make(map[uuid.UUID]*catalog.Product),
		categories: make(map[uuid.UUID]*catalog.Category),
		orders:     make(map[uuid.UUID]*order.Order),
	}
}

var (
	_ catalog.Repository = (*Store)(nil)
	_ order.Repository   = (*Store)(nil)
)

func cloneProduct(p *catalog.Product) *catalog.Product {
	c := *p
	c.Images = append([]catalog.Image(nil), p.Images...)
	c.Tags = append([]string(nil), p.Tags...)
	if p.CategoryID != nil {
		id := *p.CategoryID
		c.CategoryID = &id
	}
	return &c
}

func cloneCategory(cat *catalog.Category) *catalog.Category {
	c := *cat
	if cat.ParentID != nil {
		id := *cat.ParentID
		c.ParentID = &id
	}
	return &c
}

func page[T any](items []T, pageNo, limit int) []T {
	if limit <= 0 {
		return items
	}
	start := 0
	if pageNo > 1 {
		start = (pageNo - 1) * limit
	}
	if start >= len(items) {
		return nil
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
