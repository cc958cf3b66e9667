package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mmdatafocus/stock_ledger/config"
	"github.com/mmdatafocus/stock_ledger/models"
	"github.com/mmdatafocus/stock_ledger/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// column headings recognised in the first row, case-insensitive
const (
	colName          = "name"
	colSku           = "sku"
	colCategory      = "category"
	colBrand         = "brand"
	colManufacturer  = "manufacturer"
	colBaseUnit      = "base unit"
	colAlternate     = "alternate units"
	colStock         = "stock"
	colMinLevel      = "min level"
	colPurchasePrice = "purchase price"
	colSellingPrice  = "selling price"
)

type options struct {
	filePath        string
	sheetName       string
	dryRun          bool
	continueOnError bool
}

func main() {
	var opts options
	flag.StringVar(&opts.filePath, "file", "", "Required: xlsx catalog to import")
	flag.StringVar(&opts.sheetName, "sheet", "", "Optional: worksheet name (defaults to the first sheet)")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "Parse and validate without saving")
	flag.BoolVar(&opts.continueOnError, "continue-on-error", false, "Skip invalid rows and import the rest")
	flag.Parse()

	if strings.TrimSpace(opts.filePath) == "" {
		fmt.Fprintln(os.Stderr, "--file is required")
		os.Exit(1)
	}
	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run returns instead of exiting so deferred lock release and client closes
// always happen.
func run(ctx context.Context, opts options) error {
	logger := config.GetLogger()

	rows, err := readSheet(opts.filePath, opts.sheetName)
	if err != nil {
		return fmt.Errorf("read %s: %w", opts.filePath, err)
	}
	products, rowErrs := parseCatalog(rows)
	for _, e := range rowErrs {
		logger.WithFields(logrus.Fields{"field": "catalog"}).Warn(e.Error())
	}
	if len(rowErrs) > 0 && !opts.continueOnError {
		return fmt.Errorf("%d invalid rows, nothing imported", len(rowErrs))
	}

	var store models.Store = models.NewMemoryStore(nil)
	if !opts.dryRun {
		if err := config.ConnectDatabaseWithRetry(); err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		if err := models.MigrateTable(config.GetDB()); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		store = models.NewGormStore(config.GetDB())

		release, err := lockInventory(ctx)
		if err != nil {
			return fmt.Errorf("lock: %w", err)
		}
		defer release()
	}

	inv := models.NewInventory(models.WithStore(store))
	if err := inv.Load(ctx); err != nil {
		return fmt.Errorf("load inventory: %w", err)
	}

	imported, skipped, err := importProducts(ctx, inv, products, opts.continueOnError)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"imported": imported,
		"skipped":  skipped + len(rowErrs),
		"dry_run":  opts.dryRun,
	}).Info("catalog import finished")
	return nil
}

// lockInventory takes the same mutation lock the server takes, connecting redis
// first when REDIS_ADDRESS is set.
func lockInventory(ctx context.Context) (func(), error) {
	closeRedis := func() {}
	if config.RedisConfigured() && config.GetRedisLock() == nil {
		if err := config.ConnectRedisWithRetry(ctx); err != nil {
			return nil, err
		}
		closeRedis = config.CloseRedis
	}
	release, err := utils.ObtainMutationLock(ctx, "inventory", "catalog-import", "lockInventory")
	if err != nil {
		closeRedis()
		return nil, err
	}
	return func() {
		release()
		closeRedis()
	}, nil
}

// importProducts adds products in one inventory transaction. With continueOnError
// rejected products are skipped, otherwise the first rejection aborts the import.
func importProducts(ctx context.Context, inv *models.Inventory, products []models.NewProduct, continueOnError bool) (imported int, skipped int, err error) {
	logger := config.GetLogger()
	err = inv.Update(ctx, func(tx *models.InventoryTx) error {
		imported, skipped = 0, 0
		for i := range products {
			if _, err := tx.AddProduct(&products[i]); err != nil {
				if !continueOnError {
					return fmt.Errorf("product %q: %w", products[i].Name, err)
				}
				logger.WithFields(logrus.Fields{"field": "catalog", "name": products[i].Name}).Warn(err.Error())
				skipped++
				continue
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return imported, skipped, nil
}

func readSheet(path string, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	return f.GetRows(sheet)
}

// parseCatalog maps sheet rows to products by heading. Rows that cannot be parsed
// are reported and left out.
func parseCatalog(rows [][]string) ([]models.NewProduct, []error) {
	if len(rows) == 0 {
		return nil, []error{errors.New("sheet is empty")}
	}
	index := make(map[string]int)
	for i, h := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := index[colName]; !ok {
		return nil, []error{fmt.Errorf("missing %q column", colName)}
	}

	var products []models.NewProduct
	var errs []error
	for n, row := range rows[1:] {
		rowNo := n + 2
		cell := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		if cell(colName) == "" {
			continue
		}

		p := models.NewProduct{
			Name:         cell(colName),
			Sku:          cell(colSku),
			Category:     cell(colCategory),
			Brand:        cell(colBrand),
			Manufacturer: cell(colManufacturer),
			BaseUnit:     cell(colBaseUnit),
		}
		if p.BaseUnit == "" {
			p.BaseUnit = "Pcs"
		}

		var err error
		if p.Stock, err = parseAmount(cell(colStock)); err != nil {
			errs = append(errs, fmt.Errorf("row %d stock: %w", rowNo, err))
			continue
		}
		if p.MinLevel, err = parseAmount(cell(colMinLevel)); err != nil {
			errs = append(errs, fmt.Errorf("row %d min level: %w", rowNo, err))
			continue
		}
		if p.PurchasePrice, err = parseAmount(cell(colPurchasePrice)); err != nil {
			errs = append(errs, fmt.Errorf("row %d purchase price: %w", rowNo, err))
			continue
		}
		if p.SellingPrice, err = parseAmount(cell(colSellingPrice)); err != nil {
			errs = append(errs, fmt.Errorf("row %d selling price: %w", rowNo, err))
			continue
		}
		if p.AlternateUnits, err = parseAlternateUnits(cell(colAlternate)); err != nil {
			errs = append(errs, fmt.Errorf("row %d alternate units: %w", rowNo, err))
			continue
		}
		if err := models.ValidateUnits(p.BaseUnit, p.AlternateUnits); err != nil {
			errs = append(errs, fmt.Errorf("row %d: %w", rowNo, err))
			continue
		}
		products = append(products, p)
	}
	return products, errs
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return utils.ParseFormattedDecimal(s)
}

// parseAlternateUnits reads "Box=10; Carton=120".
func parseAlternateUnits(s string) ([]models.AlternateUnit, error) {
	if s == "" {
		return nil, nil
	}
	var units []models.AlternateUnit
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, factor, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("%q is not NAME=FACTOR", part)
		}
		f, err := utils.ParseDecimal(strings.TrimSpace(factor))
		if err != nil {
			return nil, fmt.Errorf("factor of %q: %w", name, err)
		}
		units = append(units, models.AlternateUnit{Name: strings.TrimSpace(name), Factor: f})
	}
	return units, nil
}
