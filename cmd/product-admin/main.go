package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"product-admin/internal/client"
	"product-admin/internal/config"
	"product-admin/internal/exporter"
	"product-admin/internal/importer"
	"product-admin/internal/models"
	"product-admin/internal/persistence"
	"product-admin/internal/store"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using system environment variables")
	}

	cfg := config.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "import":
		err = runImport(cfg, logger, os.Args[2:])
	case "validate":
		err = runValidate(cfg, logger, os.Args[2:])
	case "export":
		err = runExport(cfg, logger, os.Args[2:])
	case "template":
		err = runTemplate(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		logger.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: product-admin <command> [flags]

Commands:
  import    validate a spreadsheet and push valid rows to the product service
  validate  validate a spreadsheet and print the result without pushing
  export    export the product listing to CSV, XLSX or PDF
  template  write an import template file`)
}

// buildStore wires the remote client, the state backend and the store. Redis
// is preferred for view-state persistence when REDIS_URL is set; otherwise a
// local state file is used.
func buildStore(cfg *config.Config, logger *logrus.Logger) *store.Store {
	productClient := client.NewProductClient(cfg.APIBaseURL, client.WithTimeout(cfg.APITimeout))

	var state persistence.Store = persistence.NewFileStore(cfg.StateFilePath)
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("Failed to parse Redis URL, falling back to file state")
		} else {
			redisClient := redis.NewClient(redisOpts)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				logger.WithError(err).Warn("Failed to connect to Redis, falling back to file state")
			} else {
				state = persistence.NewRedisStore(redisClient)
			}
			cancel()
		}
	}

	return store.New(store.Config{
		Remote:   productClient,
		State:    state,
		Logger:   logger,
		CacheTTL: cfg.CacheTTL,
	})
}

func newImporter(cfg *config.Config, logger *logrus.Logger, validateRefs bool) *importer.Importer {
	return importer.New(logger, importer.Options{
		BatchSize:          cfg.ImportBatchSize,
		ValidateReferences: validateRefs,
		OnProgress: func(percent int) {
			logger.WithField("percent", percent).Debug("Import progress")
		},
	})
}

func runValidate(cfg *config.Config, logger *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	file := fs.String("file", "", "CSV or XLSX file to validate")
	checkRefs := fs.Bool("check-refs", false, "fail variant rows whose productSku matches no valid product row")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("-file is required")
	}

	result, err := validateFile(cfg, logger, *file, *checkRefs)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runImport(cfg *config.Config, logger *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", "", "CSV or XLSX file to import")
	checkRefs := fs.Bool("check-refs", false, "fail variant rows whose productSku matches no valid product row")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("-file is required")
	}

	result, err := validateFile(cfg, logger, *file, *checkRefs)
	if err != nil {
		return err
	}
	if result.Products.Stats.Valid == 0 && result.Variants.Stats.Valid == 0 {
		if err := printJSON(result); err != nil {
			return err
		}
		return fmt.Errorf("no valid rows to import")
	}

	st := buildStore(cfg, logger)
	ctx := context.Background()

	skuToID := make(map[string]string)
	created, failed := 0, 0
	for i := range result.Products.ValidData {
		rec := &result.Products.ValidData[i]
		product, err := st.CreateProduct(ctx, toCreateRequest(rec))
		if err != nil {
			logger.WithError(err).WithField("sku", rec.SKU).Warn("Failed to create product")
			failed++
			continue
		}
		skuToID[strings.ToLower(product.SKU)] = product.ID
		created++
	}

	variantsCreated, variantsFailed := 0, 0
	for i := range result.Variants.ValidData {
		rec := &result.Variants.ValidData[i]
		productID, ok := skuToID[strings.ToLower(rec.ProductSKU)]
		if !ok {
			logger.WithField("productSku", rec.ProductSKU).Warn("Skipping variant: parent product not created in this run")
			variantsFailed++
			continue
		}
		if _, err := st.CreateVariant(ctx, productID, toVariantRequest(rec)); err != nil {
			logger.WithError(err).WithField("sku", rec.SKU).Warn("Failed to create variant")
			variantsFailed++
			continue
		}
		variantsCreated++
	}

	logger.WithFields(logrus.Fields{
		"productsCreated": created,
		"productsFailed":  failed,
		"variantsCreated": variantsCreated,
		"variantsFailed":  variantsFailed,
	}).Info("Import finished")
	return printJSON(result)
}

func runExport(cfg *config.Config, logger *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	file := fs.String("file", "", "output file; format follows the extension (.csv, .xlsx, .pdf)")
	withVariants := fs.Bool("with-variants", false, "include a Variants sheet (XLSX only)")
	title := fs.String("title", "", "document title (PDF only)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("-file is required")
	}

	st := buildStore(cfg, logger)
	ctx := context.Background()

	products, _, err := st.FetchProducts(ctx, nil)
	if err != nil {
		return err
	}

	variants := make(map[string][]*models.Variant)
	if *withVariants {
		for _, p := range products {
			if !p.HasVariants {
				continue
			}
			vs, err := st.FetchVariants(ctx, p.ID)
			if err != nil {
				logger.WithError(err).WithField("productId", p.ID).Warn("Failed to fetch variants")
				continue
			}
			variants[p.ID] = vs
		}
	}

	var data []byte
	switch strings.ToLower(filepath.Ext(*file)) {
	case ".csv":
		data, err = exporter.ExportCSV(products)
	case ".xlsx":
		data, err = exporter.ExportWorkbook(products, variants)
	case ".pdf":
		data, err = exporter.ExportPDF(*title, products)
	default:
		return fmt.Errorf("unsupported export format %q", filepath.Ext(*file))
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(*file, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	logger.WithFields(logrus.Fields{"file": *file, "products": len(products)}).Info("Export written")
	return nil
}

func runTemplate(args []string) error {
	fs := flag.NewFlagSet("template", flag.ExitOnError)
	file := fs.String("file", "", "output file; format follows the extension (.csv, .xlsx)")
	entity := fs.String("entity", "products", "schema for CSV templates: products or variants")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("-file is required")
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(*file)) {
	case ".csv":
		switch *entity {
		case "products":
			data, err = importer.TemplateCSV(models.ProductImportTemplate())
		case "variants":
			data, err = importer.TemplateCSV(models.VariantImportTemplate())
		default:
			return fmt.Errorf("unknown entity %q", *entity)
		}
	case ".xlsx":
		data, err = importer.TemplateWorkbook()
	default:
		return fmt.Errorf("unsupported template format %q", filepath.Ext(*file))
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(*file, data, 0o644); err != nil {
		return fmt.Errorf("failed to write template file: %w", err)
	}
	return nil
}

// validateFile parses and validates a CSV or XLSX file. CSV files carry
// product rows only; XLSX workbooks may also carry a Variants sheet.
func validateFile(cfg *config.Config, logger *logrus.Logger, path string, checkRefs bool) (*importer.WorkbookResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	imp := newImporter(cfg, logger, checkRefs)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		products, err := imp.ImportProductsCSV(f)
		if err != nil {
			return nil, err
		}
		return &importer.WorkbookResult{Products: *products}, nil
	case ".xlsx":
		return imp.ImportWorkbook(f)
	default:
		return nil, fmt.Errorf("unsupported import format %q", filepath.Ext(path))
	}
}

func toCreateRequest(rec *models.ProductRecord) *models.CreateProductRequest {
	req := &models.CreateProductRequest{
		Name:        rec.Name,
		SKU:         rec.SKU,
		Category:    rec.Category,
		Barcode:     rec.Barcode,
		Brand:       rec.Brand,
		Description: rec.Description,
		CostPrice:   rec.CostPrice,
		SalePrice:   rec.SalePrice,
		MaxStock:    rec.MaxStock,
	}
	if rec.RetailPrice != nil {
		req.RetailPrice = *rec.RetailPrice
	}
	if rec.Stock != nil {
		req.Stock = *rec.Stock
	}
	if rec.MinStock != nil {
		req.MinStock = *rec.MinStock
	}
	if rec.Status != nil {
		req.Status = *rec.Status
	}
	if rec.HasVariants != nil {
		req.HasVariants = *rec.HasVariants
	}
	return req
}

func toVariantRequest(rec *models.VariantRecord) *models.CreateVariantRequest {
	req := &models.CreateVariantRequest{
		SKU:     rec.SKU,
		Barcode: rec.Barcode,
		Price:   rec.Price,
		Stock:   rec.Stock,
	}
	if rec.Name != nil {
		req.Name = *rec.Name
	} else {
		req.Name = rec.SKU
	}
	if rec.IsActive != nil {
		req.IsActive = *rec.IsActive
	} else {
		req.IsActive = true
	}
	return req
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
