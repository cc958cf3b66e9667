package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mmdatafocus/stock_ledger/config"
	"github.com/mmdatafocus/stock_ledger/models"
	"github.com/mmdatafocus/stock_ledger/models/reports"
	"github.com/sirupsen/logrus"
)

func main() {
	output := flag.String("out", "stock_report.xlsx", "Output xlsx path")
	fromDate := flag.String("from", "", "Optional: transaction log start date (YYYY-MM-DD)")
	toDate := flag.String("to", "", "Optional: transaction log end date (YYYY-MM-DD)")
	flag.Parse()

	if strings.TrimSpace(*output) == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	if err := config.ConnectDatabaseWithRetry(); err != nil {
		fmt.Fprintf(os.Stderr, "connect database: %v\n", err)
		os.Exit(1)
	}
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	logger := config.GetLogger()

	inv := models.NewInventory(models.WithStore(models.NewGormStore(db)))
	if err := inv.Load(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "load inventory: %v\n", err)
		os.Exit(1)
	}
	snap := inv.Snapshot()

	err := reports.SaveWorkbook(*output,
		reports.StockValuationSheet(snap),
		reports.TransactionLogSheet(snap, *fromDate, *toDate),
		reports.LowStockSheet(snap),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", *output, err)
		os.Exit(1)
	}

	_, total := reports.GetStockValuationReport(snap)
	logger.WithFields(logrus.Fields{
		"out":             *output,
		"products":        len(snap.Products),
		"transactions":    len(snap.Transactions),
		"inventory_value": total.String(),
	}).Info("stock report written")
}
