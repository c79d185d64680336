package models

import "github.com/shopspring/decimal"

// ColumnType tells the import pipeline how to coerce a cell value
type ColumnType string

const (
	ColumnTypeString  ColumnType = "string"
	ColumnTypeNumber  ColumnType = "number" // decimal
	ColumnTypeInteger ColumnType = "integer"
	ColumnTypeEnum    ColumnType = "enum"
	ColumnTypeBoolean ColumnType = "boolean"
)

// ImportColumn defines a column in the import schema
type ImportColumn struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Required    bool       `json:"required"`
	Type        ColumnType `json:"type"`
	Enum        []string   `json:"enum,omitempty"`
	Example     string     `json:"example"`
}

// ImportTemplate defines the downloadable template for an entity
type ImportTemplate struct {
	Entity  string         `json:"entity"`
	Version string         `json:"version"`
	Columns []ImportColumn `json:"columns"`
}

// ValidationError describes a single failed cell. Any validation error
// disqualifies the whole row from the valid output set.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportStats summarises an import run; Invalid is always Total - Valid.
type ImportStats struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
}

// ProductRecord is a validated, typed product row. Extra holds pass-through
// columns that are not part of the schema, copied verbatim.
type ProductRecord struct {
	Name        string            `json:"name"`
	SKU         string            `json:"sku"`
	Category    string            `json:"category"`
	Barcode     *string           `json:"barcode,omitempty"`
	Brand       *string           `json:"brand,omitempty"`
	Description *string           `json:"description,omitempty"`
	RetailPrice *decimal.Decimal  `json:"retailPrice,omitempty"`
	CostPrice   *decimal.Decimal  `json:"costPrice,omitempty"`
	SalePrice   *decimal.Decimal  `json:"salePrice,omitempty"`
	Stock       *int              `json:"stock,omitempty"`
	MinStock    *int              `json:"minStock,omitempty"`
	MaxStock    *int              `json:"maxStock,omitempty"`
	Status      *ProductStatus    `json:"status,omitempty"`
	HasVariants *bool             `json:"hasVariants,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// VariantRecord is a validated, typed variant row referencing its product by SKU.
type VariantRecord struct {
	ProductSKU string            `json:"productSku"`
	SKU        string            `json:"sku"`
	Name       *string           `json:"name,omitempty"`
	Barcode    *string           `json:"barcode,omitempty"`
	Price      *decimal.Decimal  `json:"price,omitempty"`
	Stock      *int              `json:"stock,omitempty"`
	IsActive   *bool             `json:"isActive,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// ProductImportResult carries the outcome of a product sheet import
type ProductImportResult struct {
	ValidData []ProductRecord   `json:"validData"`
	Errors    []ValidationError `json:"errors"`
	Stats     ImportStats       `json:"stats"`
}

// VariantImportResult carries the outcome of a variant sheet import
type VariantImportResult struct {
	ValidData []VariantRecord   `json:"validData"`
	Errors    []ValidationError `json:"errors"`
	Stats     ImportStats       `json:"stats"`
}

// ProductImportColumns returns the column schema for the Products sheet
func ProductImportColumns() []ImportColumn {
	return []ImportColumn{
		{Name: "name", Description: "Product name", Required: true, Type: ColumnTypeString, Example: "Blue Cotton T-Shirt"},
		{Name: "sku", Description: "Unique product SKU", Required: true, Type: ColumnTypeString, Example: "TSH-BLU-001"},
		{Name: "category", Description: "Category name", Required: true, Type: ColumnTypeString, Example: "Apparel"},
		{Name: "barcode", Description: "EAN/UPC barcode", Required: false, Type: ColumnTypeString, Example: "4006381333931"},
		{Name: "brand", Description: "Brand name", Required: false, Type: ColumnTypeString, Example: ""},
		{Name: "description", Description: "Product description", Required: false, Type: ColumnTypeString, Example: ""},
		{Name: "retailPrice", Description: "Retail price", Required: false, Type: ColumnTypeNumber, Example: "29.99"},
		{Name: "costPrice", Description: "Cost price", Required: false, Type: ColumnTypeNumber, Example: "12.50"},
		{Name: "salePrice", Description: "Sale price", Required: false, Type: ColumnTypeNumber, Example: ""},
		{Name: "stock", Description: "Current stock quantity", Required: false, Type: ColumnTypeInteger, Example: "100"},
		{Name: "minStock", Description: "Minimum stock level", Required: false, Type: ColumnTypeInteger, Example: "10"},
		{Name: "maxStock", Description: "Maximum stock level", Required: false, Type: ColumnTypeInteger, Example: ""},
		{Name: "status", Description: "Product status", Required: false, Type: ColumnTypeEnum, Enum: []string{"active", "inactive"}, Example: "active"},
		{Name: "hasVariants", Description: "Whether the product has variants", Required: false, Type: ColumnTypeBoolean, Example: "false"},
	}
}

// VariantImportColumns returns the column schema for the Variants sheet
func VariantImportColumns() []ImportColumn {
	return []ImportColumn{
		{Name: "productSku", Description: "SKU of the parent product", Required: true, Type: ColumnTypeString, Example: "TSH-BLU-001"},
		{Name: "sku", Description: "Unique variant SKU", Required: true, Type: ColumnTypeString, Example: "TSH-BLU-001-M"},
		{Name: "name", Description: "Variant name", Required: false, Type: ColumnTypeString, Example: "Medium"},
		{Name: "barcode", Description: "EAN/UPC barcode", Required: false, Type: ColumnTypeString, Example: ""},
		{Name: "price", Description: "Variant price override", Required: false, Type: ColumnTypeNumber, Example: "31.99"},
		{Name: "stock", Description: "Variant stock override", Required: false, Type: ColumnTypeInteger, Example: "25"},
		{Name: "isActive", Description: "Whether the variant is active", Required: false, Type: ColumnTypeBoolean, Example: "true"},
	}
}

// ProductImportTemplate returns the template definition for products
func ProductImportTemplate() ImportTemplate {
	return ImportTemplate{Entity: "products", Version: "1.0", Columns: ProductImportColumns()}
}

// VariantImportTemplate returns the template definition for variants
func VariantImportTemplate() ImportTemplate {
	return ImportTemplate{Entity: "variants", Version: "1.0", Columns: VariantImportColumns()}
}
