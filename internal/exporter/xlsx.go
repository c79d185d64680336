package exporter

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"product-admin/internal/models"
)

// ExportWorkbook renders products as an XLSX workbook with a styled header.
// When variants is non-empty a second Variants sheet is written, keyed by the
// parent product's SKU so the workbook round-trips through the importer.
func ExportWorkbook(products []*models.Product, variants map[string][]*models.Variant) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const productSheet = "Products"
	if err := f.SetSheetName("Sheet1", productSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSheetRows(f, productSheet, headerStyle, productColumns, len(products), func(i int) []string {
		return productRow(products[i])
	}); err != nil {
		return nil, err
	}

	if hasVariantRows(variants) {
		const variantSheet = "Variants"
		if _, err := f.NewSheet(variantSheet); err != nil {
			return nil, fmt.Errorf("failed to create variants sheet: %w", err)
		}

		rows := make([][]string, 0)
		for _, p := range products {
			for _, v := range variants[p.ID] {
				rows = append(rows, variantRow(p.SKU, v))
			}
		}
		if err := writeSheetRows(f, variantSheet, headerStyle, variantColumns, len(rows), func(i int) []string {
			return rows[i]
		}); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheetRows(f *excelize.File, sheetName string, headerStyle int, columns []string, rowCount int, rowAt func(int) []string) error {
	for i, name := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return fmt.Errorf("failed to write header cell: %w", err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to style header cell: %w", err)
		}

		colName, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to compute column name: %w", err)
		}
		width := float64(len(name)) + 6
		if width < 12 {
			width = 12
		}
		if err := f.SetColWidth(sheetName, colName, colName, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for r := 0; r < rowCount; r++ {
		row := rowAt(r)
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("failed to compute data cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("failed to write data cell: %w", err)
			}
		}
	}
	return nil
}

func hasVariantRows(variants map[string][]*models.Variant) bool {
	for _, vs := range variants {
		if len(vs) > 0 {
			return true
		}
	}
	return false
}
