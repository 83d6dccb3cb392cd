package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines storage for products and categories.
type Repository interface {
	CreateProduct(ctx context.Context, p *Product) error
	// UpdateProduct writes every editable field. Stock and popularity are
	// left untouched.
	UpdateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*Product, error)
	// GetProducts returns the products that exist among ids, keyed by id.
	GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]*Product, int, error)

	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	GetCategory(ctx context.Context, id uuid.UUID) (*Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*Category, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]*Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}
