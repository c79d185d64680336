package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/xuri/excelize/v2"

	"product-admin/internal/models"
)

// TemplateCSV renders a one-line CSV header for the template. Required
// columns carry a trailing " *" marker, which the parser strips on the way
// back in.
func TemplateCSV(tpl models.ImportTemplate) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, 0, len(tpl.Columns))
	examples := make([]string, 0, len(tpl.Columns))
	for _, col := range tpl.Columns {
		header = append(header, columnHeader(col))
		examples = append(examples, col.Example)
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write template header: %w", err)
	}
	if err := w.Write(examples); err != nil {
		return nil, fmt.Errorf("failed to write example row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write template: %w", err)
	}
	return buf.Bytes(), nil
}

// TemplateWorkbook builds an XLSX import template with a Products sheet, a
// Variants sheet and an Instructions sheet describing every column.
func TemplateWorkbook() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeTemplateSheet(f, ProductsSheet, models.ProductImportTemplate()); err != nil {
		return nil, err
	}
	if err := writeTemplateSheet(f, VariantsSheet, models.VariantImportTemplate()); err != nil {
		return nil, err
	}
	if err := writeInstructionsSheet(f); err != nil {
		return nil, err
	}

	// excelize seeds new files with "Sheet1"; the template only ships named
	// sheets.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}
	if idx, err := f.GetSheetIndex(ProductsSheet); err == nil {
		f.SetActiveSheet(idx)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write template workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTemplateSheet(f *excelize.File, sheetName string, tpl models.ImportTemplate) error {
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheetName, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	requiredStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C00000"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create required header style: %w", err)
	}

	for i, col := range tpl.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, columnHeader(col)); err != nil {
			return fmt.Errorf("failed to write header cell: %w", err)
		}
		style := headerStyle
		if col.Required {
			style = requiredStyle
		}
		if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
			return fmt.Errorf("failed to style header cell: %w", err)
		}

		exampleCell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			return fmt.Errorf("failed to compute example cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, exampleCell, col.Example); err != nil {
			return fmt.Errorf("failed to write example cell: %w", err)
		}

		colName, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to compute column name: %w", err)
		}
		width := float64(len(col.Name)) + 8
		if width < 14 {
			width = 14
		}
		if err := f.SetColWidth(sheetName, colName, colName, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	return nil
}

func writeInstructionsSheet(f *excelize.File) error {
	const sheetName = "Instructions"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheetName, err)
	}

	lines := []string{
		"Product import template",
		"",
		"Columns marked with * are required. The example row may be deleted.",
		"Prices use a dot as the decimal separator, e.g. 29.99.",
		"Boolean columns accept true/1/yes and false/0/no.",
		"Variant rows reference their parent product by SKU in the productSku column.",
		"Unknown columns are imported as-is and forwarded unchanged.",
		"",
	}
	for _, tpl := range []models.ImportTemplate{models.ProductImportTemplate(), models.VariantImportTemplate()} {
		lines = append(lines, fmt.Sprintf("%s sheet (template v%s):", tpl.Entity, tpl.Version))
		for _, col := range tpl.Columns {
			marker := ""
			if col.Required {
				marker = " (required)"
			}
			lines = append(lines, fmt.Sprintf("  %s%s: %s [%s]", col.Name, marker, col.Description, col.Type))
		}
		lines = append(lines, "")
	}

	for i, line := range lines {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to compute instruction cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, line); err != nil {
			return fmt.Errorf("failed to write instruction line: %w", err)
		}
	}
	if err := f.SetColWidth(sheetName, "A", "A", 90); err != nil {
		return fmt.Errorf("failed to set instructions width: %w", err)
	}
	return nil
}

func columnHeader(col models.ImportColumn) string {
	if col.Required {
		return col.Name + " *"
	}
	return col.Name
}
