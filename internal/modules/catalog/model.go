package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicate          = errors.New("already exists")
)

// Status is the publication state of a product.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

type Image struct {
	URL     string `json:"url"`
	Alt     string `json:"alt,omitempty"`
	Primary bool   `json:"is_primary"`
}

// Product is a sellable catalog entry. Stock is only changed through the
// inventory package once the product exists.
type Product struct {
	ID               uuid.UUID           `json:"id"`
	Name             string              `json:"name"`
	Slug             string              `json:"slug"`
	Description      string              `json:"description"`
	ShortDescription string              `json:"short_description,omitempty"`
	Price            decimal.Decimal     `json:"price"`
	DiscountPrice    decimal.NullDecimal `json:"discount_price"`
	Images           []Image             `json:"images"`
	CategoryID       *uuid.UUID          `json:"category_id,omitempty"`
	Stock            int                 `json:"stock"`
	Status           Status              `json:"status"`
	Popularity       int                 `json:"popularity"`
	Featured         bool                `json:"featured"`
	NewArrival       bool                `json:"new_arrival"`
	SKU              string              `json:"sku,omitempty"`
	Tags             []string            `json:"tags"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// EffectivePrice is the discount price when one is set above zero, else the
// list price.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice.Valid && p.DiscountPrice.Decimal.IsPositive() {
		return p.DiscountPrice.Decimal
	}
	return p.Price
}

// Purchasable reports whether the product can be ordered at all.
func (p *Product) Purchasable() bool { return p.Status == StatusPublished }

// PrimaryImage returns the image flagged primary, or the first one.
func (p *Product) PrimaryImage() string {
	for _, img := range p.Images {
		if img.Primary {
			return img.URL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}

type Category struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description,omitempty"`
	Image       string     `json:"image,omitempty"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	SortOrder   int        `json:"sort_order"`
	Featured    bool       `json:"featured"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Sort orders accepted by product listings.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortPopular   = "popular"
)

// ProductFilter narrows a product listing. A nil Status means any status.
type ProductFilter struct {
	Status     *Status
	CategoryID *uuid.UUID
	Featured   *bool
	Search     string
	Sort       string
	Page       int
	Limit      int
}

func (f ProductFilter) offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// ProductRequest is the admin payload for creating or editing a product.
// Stock is read on create only.
type ProductRequest struct {
	Name             string              `json:"name"`
	Slug             string              `json:"slug"`
	Description      string              `json:"description"`
	ShortDescription string              `json:"short_description"`
	Price            decimal.Decimal     `json:"price"`
	DiscountPrice    decimal.NullDecimal `json:"discount_price"`
	Images           []Image             `json:"images"`
	CategoryID       string              `json:"category_id"`
	Stock            int                 `json:"stock"`
	Status           Status              `json:"status"`
	Featured         bool                `json:"featured"`
	NewArrival       bool                `json:"new_arrival"`
	SKU              string              `json:"sku"`
	Tags             []string            `json:"tags"`
}

type CategoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Image       string `json:"image"`
	ParentID    string `json:"parent_id"`
	SortOrder   int    `json:"sort_order"`
	Featured    bool   `json:"featured"`
	Active      *bool  `json:"active"`
}
