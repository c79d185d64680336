package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is one spreadsheet row keyed by normalized (lowercased) header. The
// synthetic "_row" key carries the 1-based source row number for error
// reporting.
type Row map[string]string

const rowKey = "_row"

// ProductsSheet and VariantsSheet are the workbook sheet names the pipeline
// understands.
const (
	ProductsSheet = "Products"
	VariantsSheet = "Variants"
)

// ParseCSV parses a CSV stream into rows. The first line is the header.
func ParseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	normalizeHeaders(headers)

	var rows []Row
	lineNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", lineNum+1, err)
		}

		row := make(Row)
		for i, value := range record {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		row[rowKey] = strconv.Itoa(lineNum + 1)
		rows = append(rows, row)
		lineNum++
	}

	return rows, nil
}

// ParseWorkbook parses an XLSX workbook: the Products sheet (falling back to
// the first sheet) and, when present, the Variants sheet.
func ParseWorkbook(r io.Reader) (products, variants []Row, err error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("no sheets found in Excel file")
	}

	productSheet := sheets[0]
	variantSheet := ""
	for _, name := range sheets {
		if strings.EqualFold(name, ProductsSheet) {
			productSheet = name
		}
		if strings.EqualFold(name, VariantsSheet) {
			variantSheet = name
		}
	}

	products, err = parseSheet(f, productSheet)
	if err != nil {
		return nil, nil, err
	}
	if variantSheet != "" {
		variants, err = parseSheet(f, variantSheet)
		if err != nil {
			return nil, nil, err
		}
	}
	return products, variants, nil
}

func parseSheet(f *excelize.File, sheetName string) ([]Row, error) {
	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}
	if len(excelRows) < 2 {
		return nil, nil // header only, or empty: no data rows
	}

	headers := excelRows[0]
	normalizeHeaders(headers)

	var rows []Row
	for rowIdx, excelRow := range excelRows[1:] {
		row := make(Row)
		for i, value := range excelRow {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		row[rowKey] = strconv.Itoa(rowIdx + 2) // 1-indexed, +1 for the header
		rows = append(rows, row)
	}
	return rows, nil
}

// normalizeHeaders lowercases headers and strips the required marker the
// template generator appends.
func normalizeHeaders(headers []string) {
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.ToLower(headers[i]))
		headers[i] = strings.TrimSuffix(headers[i], " *")
	}
}

// sourceRow returns the 1-based source row number of a parsed row.
func sourceRow(row Row) int {
	n, _ := strconv.Atoi(row[rowKey])
	return n
}
