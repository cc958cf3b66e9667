package workflow

import (
	"fmt"
	"strings"

	"github.com/mmdatafocus/stock_ledger/models"
	"github.com/shopspring/decimal"
)

// EntryLine is one row as entered, before unit and price resolution.
type EntryLine struct {
	ProductId string           `json:"product_id"`
	Quantity  decimal.Decimal  `json:"quantity"`
	Unit      string           `json:"unit"`
	Price     *decimal.Decimal `json:"price"`
}

// ResolvedLine is an entry row with its product snapshot, unit factor and price fixed.
type ResolvedLine struct {
	ProductId   string
	ProductName string
	Quantity    decimal.Decimal
	Unit        string
	Factor      decimal.Decimal
	Price       decimal.Decimal
}

func (l ResolvedLine) TransactionLine() models.TransactionLineItem {
	return models.TransactionLineItem{
		ProductId:        l.ProductId,
		ProductName:      l.ProductName,
		Quantity:         l.Quantity,
		Unit:             l.Unit,
		ConversionFactor: l.Factor,
		FinalQuantity:    l.Quantity.Mul(l.Factor),
		Price:            l.Price,
	}
}

func (l ResolvedLine) OrderLine() models.OrderLineItem {
	return models.OrderLineItem{
		ProductId: l.ProductId,
		Quantity:  l.Quantity,
		Unit:      l.Unit,
		Factor:    l.Factor,
		Price:     l.Price,
	}
}

// ProductLookup is satisfied by both *models.Inventory and *models.InventoryTx.
type ProductLookup interface {
	GetProduct(id string) (*models.Product, error)
}

// NormalizeEntryLines drops rows without a product or with quantity <= 0.
func NormalizeEntryLines(rows []EntryLine) ([]EntryLine, error) {
	kept := make([]EntryLine, 0, len(rows))
	for _, row := range rows {
		row.ProductId = strings.TrimSpace(row.ProductId)
		if row.ProductId == "" || !row.Quantity.IsPositive() {
			continue
		}
		kept = append(kept, row)
	}
	if len(kept) == 0 {
		return nil, models.ErrEmptyItemSet
	}
	return kept, nil
}

// ResolveEntryLine fixes the row's factor for its unit (base unit when empty)
// and its price (purchase price inward, selling price outward, when not given).
func ResolveEntryLine(product *models.Product, row EntryLine, movement models.TransactionType) (ResolvedLine, error) {
	unit := strings.TrimSpace(row.Unit)
	if unit == "" {
		unit = product.BaseUnit
	}
	factor, err := models.ResolveFactor(product, unit)
	if err != nil {
		return ResolvedLine{}, err
	}

	var price decimal.Decimal
	switch {
	case row.Price != nil:
		price = *row.Price
	case movement == models.TransactionTypeIn:
		price = product.PurchasePrice
	default:
		price = product.SellingPrice
	}

	return ResolvedLine{
		ProductId:   product.ID,
		ProductName: product.Name,
		Quantity:    row.Quantity,
		Unit:        unit,
		Factor:      factor,
		Price:       price,
	}, nil
}

func resolveEntryLines(lookup ProductLookup, rows []EntryLine, movement models.TransactionType) ([]ResolvedLine, error) {
	kept, err := NormalizeEntryLines(rows)
	if err != nil {
		return nil, err
	}
	lines := make([]ResolvedLine, 0, len(kept))
	for i, row := range kept {
		product, err := lookup.GetProduct(row.ProductId)
		if err != nil {
			return nil, err
		}
		line, err := ResolveEntryLine(product, row, movement)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// resolveEditedLines is resolveEntryLines for an edit of stored. A row that still
// names a stored line's product and unit keeps that line's frozen factor and name,
// and its price when the row gives none. An empty unit keeps the stored unit.
// Only rows with a new product or unit are resolved against the catalog.
func resolveEditedLines(lookup ProductLookup, rows []EntryLine, stored []models.TransactionLineItem, movement models.TransactionType) ([]ResolvedLine, error) {
	kept, err := NormalizeEntryLines(rows)
	if err != nil {
		return nil, err
	}
	used := make([]bool, len(stored))
	lines := make([]ResolvedLine, 0, len(kept))
	for i, row := range kept {
		if line, ok := carryStoredLine(row, stored, used); ok {
			lines = append(lines, line)
			continue
		}
		product, err := lookup.GetProduct(row.ProductId)
		if err != nil {
			return nil, err
		}
		line, err := ResolveEntryLine(product, row, movement)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func carryStoredLine(row EntryLine, stored []models.TransactionLineItem, used []bool) (ResolvedLine, bool) {
	unit := strings.TrimSpace(row.Unit)
	for j, item := range stored {
		if used[j] || item.ProductId != row.ProductId || (unit != "" && item.Unit != unit) {
			continue
		}
		used[j] = true
		price := item.Price
		if row.Price != nil {
			price = *row.Price
		}
		return ResolvedLine{
			ProductId:   item.ProductId,
			ProductName: item.ProductName,
			Quantity:    row.Quantity,
			Unit:        item.Unit,
			Factor:      item.ConversionFactor,
			Price:       price,
		}, true
	}
	return ResolvedLine{}, false
}

func transactionLines(lines []ResolvedLine) []models.TransactionLineItem {
	items := make([]models.TransactionLineItem, len(lines))
	for i, l := range lines {
		items[i] = l.TransactionLine()
	}
	return items
}

func orderLines(lines []ResolvedLine) []models.OrderLineItem {
	items := make([]models.OrderLineItem, len(lines))
	for i, l := range lines {
		items[i] = l.OrderLine()
	}
	return items
}
