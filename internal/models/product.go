package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductStatus represents the lifecycle status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
	ProductStatusDraft    ProductStatus = "draft"
)

// IsValid reports whether s is one of the known statuses.
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusActive, ProductStatusInactive, ProductStatusDraft:
		return true
	}
	return false
}

// Product represents a product entity as served by the remote product service.
// The store owns the cached copy; the remote service owns the record of truth.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	SKU         string  `json:"sku"`
	Barcode     *string `json:"barcode,omitempty"`
	Category    string  `json:"category"`
	Brand       *string `json:"brand,omitempty"`
	Description *string `json:"description,omitempty"`

	CostPrice   *decimal.Decimal `json:"costPrice,omitempty"`
	RetailPrice decimal.Decimal  `json:"retailPrice"`
	SalePrice   *decimal.Decimal `json:"salePrice,omitempty"`

	Stock     int            `json:"stock"`
	MinStock  int            `json:"minStock"`
	MaxStock  *int           `json:"maxStock,omitempty"`
	Locations map[string]int `json:"locations,omitempty"` // stock split per location

	Status      ProductStatus `json:"status"`
	HasVariants bool          `json:"hasVariants"`
	VariantIDs  []string      `json:"variantIds,omitempty"`
	// Variants carries embedded variant bodies on remote payloads. The store
	// normalizes them into its flat variant map and keeps VariantIDs as the
	// only reference afterwards.
	Variants []*Variant `json:"variants,omitempty"`

	// OfflineID is a client-generated idempotency marker echoed back by the
	// remote service on create.
	OfflineID *string `json:"offlineId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Variant represents a product variant. Its lifecycle is subordinate to the
// owning product: ProductID is a back-reference only, never ownership.
type Variant struct {
	ID        string           `json:"id"`
	ProductID string           `json:"productId"`
	SKU       string           `json:"sku"`
	Barcode   *string          `json:"barcode,omitempty"`
	Name      string           `json:"name"`
	Price     *decimal.Decimal `json:"price,omitempty"` // overrides product retail price
	Stock     *int             `json:"stock,omitempty"` // overrides product stock
	IsActive  bool             `json:"isActive"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// ProductFilter describes the listing query sent to the remote service.
type ProductFilter struct {
	Search   string           `json:"search,omitempty"`
	Category string           `json:"category,omitempty"`
	Status   ProductStatus    `json:"status,omitempty"`
	MinPrice *decimal.Decimal `json:"minPrice,omitempty"`
	MaxPrice *decimal.Decimal `json:"maxPrice,omitempty"`
	SortBy   string           `json:"sortBy,omitempty"`
	SortDir  string           `json:"sortDir,omitempty"`
	Page     int              `json:"page,omitempty"`
	Limit    int              `json:"limit,omitempty"`
}

// Pagination describes the page metadata returned by list endpoints.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}
