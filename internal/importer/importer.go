// Package importer turns raw spreadsheet rows into validated, typed product
// and variant records. Validation failures are collected per row, never
// thrown: a row with any error is excluded from the valid output entirely.
package importer

import (
	"io"
	"runtime"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"product-admin/internal/models"
)

const (
	// DefaultBatchSize is the number of rows validated between yields.
	DefaultBatchSize = 100
	// MaxBatchSize caps caller-supplied batch sizes.
	MaxBatchSize = 500
)

// Options configures an import run.
type Options struct {
	// BatchSize is clamped to [1, MaxBatchSize]; zero means DefaultBatchSize.
	BatchSize int
	// ValidateReferences makes variant rows whose productSku matches no valid
	// product row fail with UNKNOWN_PRODUCT_SKU. Off by default: the remote
	// service remains the final referee either way.
	ValidateReferences bool
	// OnProgress, when set, receives the integer completion percentage after
	// every batch.
	OnProgress func(percent int)
}

// Importer runs the validation pipeline.
type Importer struct {
	logger *logrus.Entry
	opts   Options
}

// New builds an Importer. logger may be nil.
func New(logger *logrus.Logger, opts Options) *Importer {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.BatchSize > MaxBatchSize {
		opts.BatchSize = MaxBatchSize
	}
	return &Importer{
		logger: logger.WithField("component", "importer"),
		opts:   opts,
	}
}

// WorkbookResult combines both sheets of a workbook import.
type WorkbookResult struct {
	Products models.ProductImportResult `json:"products"`
	Variants models.VariantImportResult `json:"variants"`
}

// ImportWorkbook parses and validates an XLSX workbook: the Products sheet
// plus the optional Variants sheet.
func (imp *Importer) ImportWorkbook(r io.Reader) (*WorkbookResult, error) {
	productRows, variantRows, err := ParseWorkbook(r)
	if err != nil {
		return nil, err
	}

	result := &WorkbookResult{}
	result.Products = *imp.ImportProducts(productRows)

	skus := make(map[string]struct{}, len(result.Products.ValidData))
	for _, rec := range result.Products.ValidData {
		skus[strings.ToLower(rec.SKU)] = struct{}{}
	}
	result.Variants = *imp.ImportVariants(variantRows, skus)

	return result, nil
}

// ImportProductsCSV parses and validates a CSV stream of product rows.
func (imp *Importer) ImportProductsCSV(r io.Reader) (*models.ProductImportResult, error) {
	rows, err := ParseCSV(r)
	if err != nil {
		return nil, err
	}
	return imp.ImportProducts(rows), nil
}

// ImportProducts validates product rows in batches. The result's stats always
// satisfy invalid == total - valid.
func (imp *Importer) ImportProducts(rows []Row) *models.ProductImportResult {
	result := &models.ProductImportResult{
		ValidData: make([]models.ProductRecord, 0, len(rows)),
		Errors:    make([]models.ValidationError, 0),
	}
	columns := models.ProductImportColumns()

	imp.processBatches(rows, func(row Row) {
		rowNum := sourceRow(row)
		coerced, errs := validateRow(row, rowNum, columns)
		if len(errs) > 0 {
			// Partial-row acceptance is not supported: one bad field
			// disqualifies the whole row.
			result.Errors = append(result.Errors, errs...)
			return
		}
		result.ValidData = append(result.ValidData, buildProductRecord(coerced, collectExtras(row, columns)))
	})

	result.Stats = stats(len(rows), len(result.ValidData))
	imp.logger.WithFields(logrus.Fields{
		"total":   result.Stats.Total,
		"valid":   result.Stats.Valid,
		"invalid": result.Stats.Invalid,
	}).Info("Product import validated")
	return result
}

// ImportVariants validates variant rows. productSKUs is the lowercased set of
// valid product SKUs from the same workbook; it is only consulted when
// reference validation is enabled.
func (imp *Importer) ImportVariants(rows []Row, productSKUs map[string]struct{}) *models.VariantImportResult {
	result := &models.VariantImportResult{
		ValidData: make([]models.VariantRecord, 0, len(rows)),
		Errors:    make([]models.ValidationError, 0),
	}
	columns := models.VariantImportColumns()

	imp.processBatches(rows, func(row Row) {
		rowNum := sourceRow(row)
		coerced, errs := validateRow(row, rowNum, columns)

		if imp.opts.ValidateReferences && productSKUs != nil {
			if sku, ok := coerced["productsku"].(string); ok {
				if _, known := productSKUs[strings.ToLower(sku)]; !known {
					errs = append(errs, models.ValidationError{
						Row:     rowNum,
						Field:   "productSku",
						Value:   sku,
						Code:    "UNKNOWN_PRODUCT_SKU",
						Message: "productSku does not match any valid product row",
					})
				}
			}
		}

		if len(errs) > 0 {
			result.Errors = append(result.Errors, errs...)
			return
		}
		result.ValidData = append(result.ValidData, buildVariantRecord(coerced, collectExtras(row, columns)))
	})

	result.Stats = stats(len(rows), len(result.ValidData))
	imp.logger.WithFields(logrus.Fields{
		"total":   result.Stats.Total,
		"valid":   result.Stats.Valid,
		"invalid": result.Stats.Invalid,
	}).Info("Variant import validated")
	return result
}

// processBatches walks rows in fixed-size batches, yielding the scheduler and
// reporting integer progress after each batch.
func (imp *Importer) processBatches(rows []Row, handle func(Row)) {
	total := len(rows)
	if total == 0 {
		if imp.opts.OnProgress != nil {
			imp.opts.OnProgress(100)
		}
		return
	}

	for start := 0; start < total; start += imp.opts.BatchSize {
		end := start + imp.opts.BatchSize
		if end > total {
			end = total
		}
		for _, row := range rows[start:end] {
			handle(row)
		}
		if imp.opts.OnProgress != nil {
			imp.opts.OnProgress(end * 100 / total)
		}
		// Cooperative yield between batches; validation itself is
		// single-threaded.
		runtime.Gosched()
	}
}

// validateRow checks one row against the column schema, returning coerced
// values keyed by lowercased column name alongside any validation errors.
func validateRow(row Row, rowNum int, columns []models.ImportColumn) (map[string]interface{}, []models.ValidationError) {
	coerced := make(map[string]interface{}, len(columns))
	var errs []models.ValidationError

	addError := func(col models.ImportColumn, value, code, message string) {
		errs = append(errs, models.ValidationError{
			Row:     rowNum,
			Field:   col.Name,
			Value:   value,
			Code:    code,
			Message: message,
		})
	}

	for _, col := range columns {
		key := strings.ToLower(col.Name)
		value := row[key]

		if value == "" {
			if col.Required {
				addError(col, "", "REQUIRED", col.Name+" is required")
			}
			continue
		}

		switch col.Type {
		case models.ColumnTypeNumber:
			n, err := decimal.NewFromString(value)
			if err != nil {
				addError(col, value, "INVALID_NUMBER", col.Name+" must be a valid number")
				continue
			}
			coerced[key] = n
		case models.ColumnTypeInteger:
			n, err := strconv.Atoi(value)
			if err != nil {
				addError(col, value, "INVALID_NUMBER", col.Name+" must be a whole number")
				continue
			}
			coerced[key] = n
		case models.ColumnTypeEnum:
			match := ""
			for _, allowed := range col.Enum {
				if strings.EqualFold(value, allowed) {
					match = allowed
					break
				}
			}
			if match == "" {
				addError(col, value, "INVALID_VALUE", col.Name+" must be one of: "+strings.Join(col.Enum, ", "))
				continue
			}
			coerced[key] = match
		case models.ColumnTypeBoolean:
			b, ok := parseBool(value)
			if !ok {
				addError(col, value, "INVALID_BOOLEAN", col.Name+" must be true/1/yes or false/0/no")
				continue
			}
			coerced[key] = b
		default:
			coerced[key] = value
		}
	}

	return coerced, errs
}

// parseBool coerces the accepted spreadsheet booleans, case-insensitively.
func parseBool(value string) (bool, bool) {
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true, true
	case "false", "0", "no":
		return false, true
	}
	return false, false
}

// collectExtras copies non-empty pass-through columns that are not part of
// the schema, verbatim.
func collectExtras(row Row, columns []models.ImportColumn) map[string]string {
	known := make(map[string]struct{}, len(columns)+1)
	known[rowKey] = struct{}{}
	for _, col := range columns {
		known[strings.ToLower(col.Name)] = struct{}{}
	}

	var extras map[string]string
	for key, value := range row {
		if _, ok := known[key]; ok || value == "" {
			continue
		}
		if extras == nil {
			extras = make(map[string]string)
		}
		extras[key] = value
	}
	return extras
}

func buildProductRecord(coerced map[string]interface{}, extras map[string]string) models.ProductRecord {
	rec := models.ProductRecord{
		Name:     asString(coerced, "name"),
		SKU:      asString(coerced, "sku"),
		Category: asString(coerced, "category"),
		Extra:    extras,
	}
	rec.Barcode = asStringPtr(coerced, "barcode")
	rec.Brand = asStringPtr(coerced, "brand")
	rec.Description = asStringPtr(coerced, "description")
	rec.RetailPrice = asDecimalPtr(coerced, "retailprice")
	rec.CostPrice = asDecimalPtr(coerced, "costprice")
	rec.SalePrice = asDecimalPtr(coerced, "saleprice")
	rec.Stock = asIntPtr(coerced, "stock")
	rec.MinStock = asIntPtr(coerced, "minstock")
	rec.MaxStock = asIntPtr(coerced, "maxstock")
	if v, ok := coerced["status"].(string); ok {
		status := models.ProductStatus(v)
		rec.Status = &status
	}
	rec.HasVariants = asBoolPtr(coerced, "hasvariants")
	return rec
}

func buildVariantRecord(coerced map[string]interface{}, extras map[string]string) models.VariantRecord {
	rec := models.VariantRecord{
		ProductSKU: asString(coerced, "productsku"),
		SKU:        asString(coerced, "sku"),
		Extra:      extras,
	}
	rec.Name = asStringPtr(coerced, "name")
	rec.Barcode = asStringPtr(coerced, "barcode")
	rec.Price = asDecimalPtr(coerced, "price")
	rec.Stock = asIntPtr(coerced, "stock")
	rec.IsActive = asBoolPtr(coerced, "isactive")
	return rec
}

func asString(coerced map[string]interface{}, key string) string {
	if v, ok := coerced[key].(string); ok {
		return v
	}
	return ""
}

func asStringPtr(coerced map[string]interface{}, key string) *string {
	if v, ok := coerced[key].(string); ok {
		return &v
	}
	return nil
}

func asIntPtr(coerced map[string]interface{}, key string) *int {
	if v, ok := coerced[key].(int); ok {
		return &v
	}
	return nil
}

func asBoolPtr(coerced map[string]interface{}, key string) *bool {
	if v, ok := coerced[key].(bool); ok {
		return &v
	}
	return nil
}

func asDecimalPtr(coerced map[string]interface{}, key string) *decimal.Decimal {
	if v, ok := coerced[key].(decimal.Decimal); ok {
		return &v
	}
	return nil
}

func stats(total, valid int) models.ImportStats {
	return models.ImportStats{Total: total, Valid: valid, Invalid: total - valid}
}
