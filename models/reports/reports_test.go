package reports_test

import (
	"bytes"
	"testing"

	"github.com/mmdatafocus/stock_ledger/models"
	"github.com/mmdatafocus/stock_ledger/models/reports"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func fixture() *models.Snapshot {
	return &models.Snapshot{
		Products: []models.Product{
			{ID: "p1", Name: "Bolt", Sku: "HW-1", Category: "Hardware", BaseUnit: "Pcs", Stock: d("10"), MinLevel: d("20"), PurchasePrice: d("2.5")},
			{ID: "p2", Name: "Lamp", Sku: "EL-1", Category: "Electrical", BaseUnit: "Pcs", Stock: d("50"), MinLevel: d("5"), PurchasePrice: d("30")},
		},
		Transactions: []models.Transaction{
			{ID: "t2", Date: "2024-05-10", Type: models.TransactionTypeOut, DocumentType: models.DocumentTypeChallan, DocumentNumber: "CH-2", PartyName: "Shop", TotalAmount: d("40"),
				Items: []models.TransactionLineItem{{ProductId: "p1", ProductName: "Bolt"}, {ProductId: "p2", ProductName: "Lamp"}}},
			{ID: "t1", Date: "2024-04-01", Type: models.TransactionTypeIn, DocumentType: models.DocumentTypeInvoice, DocumentNumber: "INV-1", PartyName: "Supplier", TotalAmount: d("100"),
				Items: []models.TransactionLineItem{{ProductId: "gone", ProductName: "Old Item"}}},
		},
		Orders: []models.Order{
			{ID: "o1", Type: models.OrderTypePurchase, Status: models.OrderStatusPending, Items: []models.OrderLineItem{{ProductId: "p1", Quantity: d("2"), Factor: d("10")}}},
		},
	}
}

func TestStockValuationReport(t *testing.T) {
	records, total := reports.GetStockValuationReport(fixture())
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if !records[0].AssetValue.Equal(d("25")) || !records[1].AssetValue.Equal(d("1500")) {
		t.Fatalf("asset values = %s, %s", records[0].AssetValue, records[1].AssetValue)
	}
	if !total.Equal(d("1525")) {
		t.Fatalf("total = %s, want 1525", total)
	}
}

func TestTransactionLogReport(t *testing.T) {
	all := reports.GetTransactionLogReport(fixture(), "", "")
	if len(all) != 2 || all[0].TransactionId != "t2" {
		t.Fatalf("log order = %+v", all)
	}
	if all[0].Items != "Bolt, Lamp" {
		t.Fatalf("Items = %q", all[0].Items)
	}
	if got := reports.GetTransactionLogReport(fixture(), "2024-05-01", "2024-05-31"); len(got) != 1 || got[0].TransactionId != "t2" {
		t.Fatalf("filtered log = %+v", got)
	}
}

func TestLowStockReport(t *testing.T) {
	records := reports.GetLowStockReport(fixture())
	if len(records) != 1 || records[0].ProductId != "p1" {
		t.Fatalf("records = %+v", records)
	}
	if !records[0].ReorderQty.Equal(d("30")) || !records[0].Incoming.Equal(d("20")) {
		t.Fatalf("low stock row = %+v", records[0])
	}
}

func TestWriteWorkbook(t *testing.T) {
	snap := fixture()
	var buf bytes.Buffer
	err := reports.WriteWorkbook(&buf,
		reports.StockValuationSheet(snap),
		reports.TransactionLogSheet(snap, "", ""),
		reports.LowStockSheet(snap),
	)
	if err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 3 || sheets[0] != "Stock Valuation" || sheets[2] != "Low Stock" {
		t.Fatalf("sheets = %v", sheets)
	}
	if v, _ := f.GetCellValue("Stock Valuation", "A1"); v != "Name" {
		t.Fatalf("A1 = %q", v)
	}
	if v, _ := f.GetCellValue("Stock Valuation", "A3"); v != "Lamp" {
		t.Fatalf("A3 = %q", v)
	}
	if v, _ := f.GetCellValue("Transaction Log", "G2"); v != "Bolt, Lamp" {
		t.Fatalf("G2 = %q", v)
	}
	if v, _ := f.GetCellValue("Low Stock", "F2"); v != "30" {
		t.Fatalf("F2 = %q", v)
	}
}
