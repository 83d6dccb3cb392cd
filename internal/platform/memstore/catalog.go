package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wyna/storefront/internal/modules/catalog"
)

func (s *Store) CreateProduct(_ context.Context, p *catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkProductSlug(p); err != nil {
		return err
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	s.products[p.ID] = cloneProduct(p)
	return nil
}

func (s *Store) UpdateProduct(_ context.Context, p *catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.products[p.ID]
	if !ok {
		return catalog.ErrNotFound
	}
	if err := s.checkProductSlug(p); err != nil {
		return err
	}
	next := cloneProduct(p)
	next.Stock = cur.Stock
	next.Popularity = cur.Popularity
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	s.products[p.ID] = next

	p.Stock, p.Popularity, p.UpdatedAt = next.Stock, next.Popularity, next.UpdatedAt
	return nil
}

func (s *Store) checkProductSlug(p *catalog.Product) error {
	for id, other := range s.products {
		if id != p.ID && other.Slug == p.Slug {
			return fmt.Errorf("%w: products_slug_key", catalog.ErrDuplicate)
		}
	}
	return nil
}

func (s *Store) GetProduct(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (s *Store) GetProductBySlug(_ context.Context, slug string) (*catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.products {
		if p.Slug == slug {
			return cloneProduct(p), nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (s *Store) GetProducts(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[uuid.UUID]*catalog.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = cloneProduct(p)
		}
	}
	return out, nil
}

func (s *Store) ListProducts(_ context.Context, f catalog.ProductFilter) ([]*catalog.Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	search := strings.ToLower(f.Search)
	var matched []*catalog.Product
	for _, p := range s.products {
		if f.Status != nil && p.Status != *f.Status {
			continue
		}
		if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
			continue
		}
		if f.Featured != nil && p.Featured != *f.Featured {
			continue
		}
		if search != "" && !matchesSearch(p, search) {
			continue
		}
		matched = append(matched, cloneProduct(p))
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch f.Sort {
		case catalog.SortPriceAsc:
			if !a.Price.Equal(b.Price) {
				return a.Price.LessThan(b.Price)
			}
		case catalog.SortPriceDesc:
			if !a.Price.Equal(b.Price) {
				return a.Price.GreaterThan(b.Price)
			}
		case catalog.SortPopular:
			if a.Popularity != b.Popularity {
				return a.Popularity > b.Popularity
			}
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return page(matched, f.Page, f.Limit), len(matched), nil
}

func matchesSearch(p *catalog.Product, search string) bool {
	if strings.Contains(strings.ToLower(p.Name), search) ||
		strings.Contains(strings.ToLower(p.Description), search) {
		return true
	}
	for _, t := range p.Tags {
		if strings.ToLower(t) == search {
			return true
		}
	}
	return false
}

// ── categories ───────────────────────────────────────────────────────────────

func (s *Store) CreateCategory(_ context.Context, c *catalog.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkCategoryUnique(c); err != nil {
		return err
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	s.categories[c.ID] = cloneCategory(c)
	return nil
}

func (s *Store) UpdateCategory(_ context.Context, c *catalog.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.categories[c.ID]
	if !ok {
		return catalog.ErrNotFound
	}
	if err := s.checkCategoryUnique(c); err != nil {
		return err
	}
	c.CreatedAt = cur.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	s.categories[c.ID] = cloneCategory(c)
	return nil
}

func (s *Store) checkCategoryUnique(c *catalog.Category) error {
	for id, other := range s.categories {
		if id == c.ID {
			continue
		}
		if other.Name == c.Name {
			return fmt.Errorf("%w: categories_name_key", catalog.ErrDuplicate)
		}
		if other.Slug == c.Slug {
			return fmt.Errorf("%w: categories_slug_key", catalog.ErrDuplicate)
		}
	}
	return nil
}

func (s *Store) GetCategory(_ context.Context, id uuid.UUID) (*catalog.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return cloneCategory(c), nil
}

func (s *Store) GetCategoryBySlug(_ context.Context, slug string) (*catalog.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if c.Slug == slug {
			return cloneCategory(c), nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (s *Store) ListCategories(_ context.Context, activeOnly bool) ([]*catalog.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*catalog.Category
	for _, c := range s.categories {
		if activeOnly && !c.Active {
			continue
		}
		out = append(out, cloneCategory(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// DeleteCategory mirrors ON DELETE SET NULL on products and child categories.
func (s *Store) DeleteCategory(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(s.categories, id)
	for _, p := range s.products {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID = nil
		}
	}
	for _, c := range s.categories {
		if c.ParentID != nil && *c.ParentID == id {
			c.ParentID = nil
		}
	}
	return nil
}
