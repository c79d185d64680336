package models

import "github.com/shopspring/decimal"

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Name        string           `json:"name" validate:"required"`
	SKU         string           `json:"sku" validate:"required"`
	Barcode     *string          `json:"barcode,omitempty"`
	Category    string           `json:"category" validate:"required"`
	Brand       *string          `json:"brand,omitempty"`
	Description *string          `json:"description,omitempty"`
	CostPrice   *decimal.Decimal `json:"costPrice,omitempty"`
	RetailPrice decimal.Decimal  `json:"retailPrice" validate:"required"`
	SalePrice   *decimal.Decimal `json:"salePrice,omitempty"`
	Stock       int              `json:"stock" validate:"gte=0"`
	MinStock    int              `json:"minStock" validate:"gte=0"`
	MaxStock    *int             `json:"maxStock,omitempty"`
	Status      ProductStatus    `json:"status,omitempty" validate:"omitempty,oneof=active inactive draft"`
	HasVariants bool             `json:"hasVariants"`
	// OfflineID lets the caller supply its own idempotency marker; the store
	// generates one when absent.
	OfflineID *string `json:"offlineId,omitempty"`
}

// UpdateProductRequest represents a partial update (patch) to a product.
// Nil fields are left untouched. The product id is never part of a patch.
type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty"`
	SKU         *string          `json:"sku,omitempty"`
	Barcode     *string          `json:"barcode,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Brand       *string          `json:"brand,omitempty"`
	Description *string          `json:"description,omitempty"`
	CostPrice   *decimal.Decimal `json:"costPrice,omitempty"`
	RetailPrice *decimal.Decimal `json:"retailPrice,omitempty"`
	SalePrice   *decimal.Decimal `json:"salePrice,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	MinStock    *int             `json:"minStock,omitempty"`
	MaxStock    *int             `json:"maxStock,omitempty"`
	Status      *ProductStatus   `json:"status,omitempty" validate:"omitempty,oneof=active inactive draft"`
	HasVariants *bool            `json:"hasVariants,omitempty"`
}

// CreateVariantRequest represents a request to create a product variant
type CreateVariantRequest struct {
	SKU      string           `json:"sku" validate:"required"`
	Barcode  *string          `json:"barcode,omitempty"`
	Name     string           `json:"name" validate:"required"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Stock    *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	IsActive bool             `json:"isActive"`
}

// UpdateVariantRequest represents a partial update to a variant
type UpdateVariantRequest struct {
	SKU      *string          `json:"sku,omitempty"`
	Barcode  *string          `json:"barcode,omitempty"`
	Name     *string          `json:"name,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Stock    *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	IsActive *bool            `json:"isActive,omitempty"`
}

// UpdateStockRequest represents a stock adjustment on the remote service
type UpdateStockRequest struct {
	Stock  int     `json:"stock" validate:"gte=0"`
	Reason *string `json:"reason,omitempty"`
}

// BulkUpdateProductsRequest applies the same changes to every listed product
type BulkUpdateProductsRequest struct {
	IDs     []string             `json:"ids" validate:"required,min=1"`
	Changes UpdateProductRequest `json:"changes"`
}

// BulkDeleteProductsRequest removes every listed product
type BulkDeleteProductsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}
