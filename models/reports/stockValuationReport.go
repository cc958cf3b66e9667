package reports

import (
	"github.com/mmdatafocus/stock_ledger/models"
	"github.com/shopspring/decimal"
)

type StockValuationResponse struct {
	ProductId     string          `json:"productId"`
	ProductName   string          `json:"productName"`
	Sku           string          `json:"sku"`
	Category      string          `json:"category"`
	StockOnHand   decimal.Decimal `json:"stockOnHand"`
	BaseUnit      string          `json:"baseUnit"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	AssetValue    decimal.Decimal `json:"assetValue"`
}

var StockValuationHeadings = []string{"Name", "SKU", "Category", "Stock", "Unit", "Purchase Price", "Total Value"}

func (r *StockValuationResponse) GetCellValues() []interface{} {
	return []interface{}{
		r.ProductName, r.Sku, r.Category,
		r.StockOnHand.InexactFloat64(), r.BaseUnit,
		r.PurchasePrice.InexactFloat64(), r.AssetValue.InexactFloat64(),
	}
}

// GetStockValuationReport values every product at stock × purchase price.
func GetStockValuationReport(snap *models.Snapshot) ([]*StockValuationResponse, decimal.Decimal) {
	records := make([]*StockValuationResponse, 0, len(snap.Products))
	total := decimal.Zero
	for _, p := range snap.Products {
		value := p.Stock.Mul(p.PurchasePrice)
		total = total.Add(value)
		records = append(records, &StockValuationResponse{
			ProductId:     p.ID,
			ProductName:   p.Name,
			Sku:           p.Sku,
			Category:      p.Category,
			StockOnHand:   p.Stock,
			BaseUnit:      p.BaseUnit,
			PurchasePrice: p.PurchasePrice,
			AssetValue:    value,
		})
	}
	return records, total
}

func StockValuationSheet(snap *models.Snapshot) Sheet {
	records, _ := GetStockValuationReport(snap)
	return Sheet{Name: "Stock Valuation", Headings: StockValuationHeadings, Rows: rowsOf(records)}
}
