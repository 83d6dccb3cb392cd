package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Service defines catalog business logic.
type Service interface {
	CreateProduct(ctx context.Context, req ProductRequest) (*Product, error)
	UpdateProduct(ctx context.Context, id string, req ProductRequest) (*Product, error)
	ArchiveProduct(ctx context.Context, id string) (*Product, error)
	// GetProduct looks a product up by id or slug regardless of status.
	GetProduct(ctx context.Context, idOrSlug string) (*Product, error)
	// GetPublishedProduct is GetProduct restricted to published products.
	GetPublishedProduct(ctx context.Context, idOrSlug string) (*Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]*Product, int, error)
	// Purchasable returns every product in ids, failing with
	// ErrProductUnavailable when one is missing or not published.
	Purchasable(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error)

	CreateCategory(ctx context.Context, req CategoryRequest) (*Category, error)
	UpdateCategory(ctx context.Context, id string, req CategoryRequest) (*Category, error)
	GetCategory(ctx context.Context, idOrSlug string) (*Category, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]*Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) CreateProduct(ctx context.Context, req ProductRequest) (*Product, error) {
	if req.Stock < 0 {
		return nil, fmt.Errorf("%w: stock must be >= 0", ErrInvalidInput)
	}
	p := &Product{ID: uuid.New(), Stock: req.Stock}
	if err := s.apply(ctx, p, req); err != nil {
		return nil, err
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

func (s *service) UpdateProduct(ctx context.Context, id string, req ProductRequest) (*Product, error) {
	p, err := s.productByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, p, req); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

func (s *service) ArchiveProduct(ctx context.Context, id string) (*Product, error) {
	p, err := s.productByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Status = StatusArchived
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("archive product: %w", err)
	}
	return p, nil
}

// apply copies the editable fields of req onto p after validating them.
func (s *service) apply(ctx context.Context, p *Product, req ProductRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if req.Price.IsNegative() {
		return fmt.Errorf("%w: price must be >= 0", ErrInvalidInput)
	}
	if req.DiscountPrice.Valid && req.DiscountPrice.Decimal.IsNegative() {
		return fmt.Errorf("%w: discount_price must be >= 0", ErrInvalidInput)
	}
	status := req.Status
	if status == "" {
		status = StatusDraft
	}
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, req.Status)
	}

	var categoryID *uuid.UUID
	if req.CategoryID != "" {
		cid, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return fmt.Errorf("%w: invalid category_id", ErrInvalidInput)
		}
		if _, err := s.repo.GetCategory(ctx, cid); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: category %s does not exist", ErrInvalidInput, cid)
			}
			return err
		}
		categoryID = &cid
	}

	slug := Slugify(req.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return fmt.Errorf("%w: name must contain letters or digits", ErrInvalidInput)
	}

	images := req.Images
	if images == nil {
		images = []Image{}
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	p.Name = name
	p.Slug = slug
	p.Description = req.Description
	p.ShortDescription = req.ShortDescription
	p.Price = req.Price.Round(2)
	p.DiscountPrice = req.DiscountPrice
	if p.DiscountPrice.Valid {
		p.DiscountPrice.Decimal = p.DiscountPrice.Decimal.Round(2)
	}
	p.Images = images
	p.CategoryID = categoryID
	p.Status = status
	p.Featured = req.Featured
	p.NewArrival = req.NewArrival
	p.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	p.Tags = tags
	return nil
}

func (s *service) GetProduct(ctx context.Context, idOrSlug string) (*Product, error) {
	if id, err := uuid.Parse(idOrSlug); err == nil {
		return s.repo.GetProduct(ctx, id)
	}
	return s.repo.GetProductBySlug(ctx, idOrSlug)
}

func (s *service) GetPublishedProduct(ctx context.Context, idOrSlug string) (*Product, error) {
	p, err := s.GetProduct(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	if !p.Purchasable() {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *service) ListProducts(ctx context.Context, f ProductFilter) ([]*Product, int, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Page < 1 {
		f.Page = 1
	}
	return s.repo.ListProducts(ctx, f)
}

func (s *service) Purchasable(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error) {
	products, err := s.repo.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		p, ok := products[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s does not exist", ErrProductUnavailable, id)
		}
		if !p.Purchasable() {
			return nil, fmt.Errorf("%w: %s is not available", ErrProductUnavailable, p.Name)
		}
	}
	return products, nil
}

func (s *service) productByID(ctx context.Context, id string) (*Product, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.repo.GetProduct(ctx, uid)
}

// ── categories ───────────────────────────────────────────────────────────────

func (s *service) CreateCategory(ctx context.Context, req CategoryRequest) (*Category, error) {
	c := &Category{ID: uuid.New(), Active: true}
	if err := applyCategory(c, req); err != nil {
		return nil, err
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *service) UpdateCategory(ctx context.Context, id string, req CategoryRequest) (*Category, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	c, err := s.repo.GetCategory(ctx, uid)
	if err != nil {
		return nil, err
	}
	if err := applyCategory(c, req); err != nil {
		return nil, err
	}
	if c.ParentID != nil && *c.ParentID == c.ID {
		return nil, fmt.Errorf("%w: a category cannot be its own parent", ErrInvalidInput)
	}
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

func applyCategory(c *Category, req CategoryRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	slug := Slugify(req.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return fmt.Errorf("%w: name must contain letters or digits", ErrInvalidInput)
	}
	c.ParentID = nil
	if req.ParentID != "" {
		pid, err := uuid.Parse(req.ParentID)
		if err != nil {
			return fmt.Errorf("%w: invalid parent_id", ErrInvalidInput)
		}
		c.ParentID = &pid
	}
	c.Name = name
	c.Slug = slug
	c.Description = req.Description
	c.Image = req.Image
	c.SortOrder = req.SortOrder
	c.Featured = req.Featured
	if req.Active != nil {
		c.Active = *req.Active
	}
	return nil
}

func (s *service) GetCategory(ctx context.Context, idOrSlug string) (*Category, error) {
	if id, err := uuid.Parse(idOrSlug); err == nil {
		return s.repo.GetCategory(ctx, id)
	}
	return s.repo.GetCategoryBySlug(ctx, idOrSlug)
}

func (s *service) ListCategories(ctx context.Context, activeOnly bool) ([]*Category, error) {
	return s.repo.ListCategories(ctx, activeOnly)
}

func (s *service) DeleteCategory(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	return s.repo.DeleteCategory(ctx, uid)
}

// Slugify lowercases s and joins its letter and digit runs with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}
