// Package exporter renders product listings to CSV, XLSX and PDF. All three
// formats share one column order so a file exported here can be re-imported
// without edits.
package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"product-admin/internal/models"
)

// productColumns is the export column order, matching the import schema.
var productColumns = []string{
	"name", "sku", "category", "barcode", "brand", "description",
	"retailPrice", "costPrice", "salePrice",
	"stock", "minStock", "maxStock", "status", "hasVariants",
}

var variantColumns = []string{
	"productSku", "sku", "name", "barcode", "price", "stock", "isActive",
}

// ExportCSV renders products as CSV with a header row.
func ExportCSV(products []*models.Product) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(productColumns); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, p := range products {
		if err := w.Write(productRow(p)); err != nil {
			return nil, fmt.Errorf("failed to write product %s: %w", p.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}

func productRow(p *models.Product) []string {
	return []string{
		p.Name,
		p.SKU,
		p.Category,
		stringOrEmpty(p.Barcode),
		stringOrEmpty(p.Brand),
		stringOrEmpty(p.Description),
		p.RetailPrice.String(),
		decimalOrEmpty(p.CostPrice),
		decimalOrEmpty(p.SalePrice),
		strconv.Itoa(p.Stock),
		strconv.Itoa(p.MinStock),
		intOrEmpty(p.MaxStock),
		string(p.Status),
		strconv.FormatBool(p.HasVariants),
	}
}

func variantRow(productSKU string, v *models.Variant) []string {
	return []string{
		productSKU,
		v.SKU,
		v.Name,
		stringOrEmpty(v.Barcode),
		decimalOrEmpty(v.Price),
		intOrEmpty(v.Stock),
		strconv.FormatBool(v.IsActive),
	}
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intOrEmpty(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}

func decimalOrEmpty(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}
