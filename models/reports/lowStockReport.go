package reports

import (
	"github.com/mmdatafocus/stock_ledger/models"
	"github.com/shopspring/decimal"
)

type LowStockResponse struct {
	ProductId   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Sku         string          `json:"sku"`
	Stock       decimal.Decimal `json:"stock"`
	MinLevel    decimal.Decimal `json:"minLevel"`
	Incoming    decimal.Decimal `json:"incoming"`
	ReorderQty  decimal.Decimal `json:"reorderQty"`
}

var LowStockHeadings = []string{"Name", "SKU", "Stock", "Min Level", "Incoming", "Reorder Qty Needed"}

func (r *LowStockResponse) GetCellValues() []interface{} {
	return []interface{}{
		r.ProductName, r.Sku, r.Stock.InexactFloat64(), r.MinLevel.InexactFloat64(),
		r.Incoming.InexactFloat64(), r.ReorderQty.InexactFloat64(),
	}
}

// GetLowStockReport lists products at or below min level with a reorder
// quantity that brings stock back to twice the min level.
func GetLowStockReport(snap *models.Snapshot) []*LowStockResponse {
	two := decimal.NewFromInt(2)
	lowStock := snap.LowStockProducts()
	records := make([]*LowStockResponse, 0, len(lowStock))
	for _, p := range lowStock {
		records = append(records, &LowStockResponse{
			ProductId:   p.ID,
			ProductName: p.Name,
			Sku:         p.Sku,
			Stock:       p.Stock,
			MinLevel:    p.MinLevel,
			Incoming:    snap.PipelineStock(p.ID).Incoming,
			ReorderQty:  p.MinLevel.Mul(two).Sub(p.Stock),
		})
	}
	return records
}

func LowStockSheet(snap *models.Snapshot) Sheet {
	return Sheet{Name: "Low Stock", Headings: LowStockHeadings, Rows: rowsOf(GetLowStockReport(snap))}
}
