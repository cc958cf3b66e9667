package models

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// AllCategories disables the category filter.
const AllCategories = "All"

// ProductStockView is a catalog row with its pipeline figures.
type ProductStockView struct {
	Product
	Incoming  decimal.Decimal `json:"incoming"`
	Committed decimal.Decimal `json:"committed"`
	Available decimal.Decimal `json:"available"`
	LastDate  string          `json:"last_activity_date"`
}

// SearchProducts matches term case-insensitively against name or SKU.
func (s *Snapshot) SearchProducts(term string, category string) []Product {
	term = strings.ToLower(strings.TrimSpace(term))
	results := make([]Product, 0)
	for _, p := range s.Products {
		if category != "" && category != AllCategories && p.Category != category {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Sku), term) {
			continue
		}
		results = append(results, p.clone())
	}
	return results
}

// Categories returns the distinct non-empty categories, sorted.
func (s *Snapshot) Categories() []string {
	categories := make([]string, 0)
	seen := make(map[string]bool)
	for _, p := range s.Products {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		categories = append(categories, p.Category)
	}
	slices.Sort(categories)
	return categories
}

// LowStockProducts lists products at or below their minimum level.
func (s *Snapshot) LowStockProducts() []Product {
	results := make([]Product, 0)
	for _, p := range s.Products {
		if p.Stock.LessThanOrEqual(p.MinLevel) {
			results = append(results, p.clone())
		}
	}
	return results
}

// InventoryValue is Σ stock × purchase price.
func (s *Snapshot) InventoryValue() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.Products {
		total = total.Add(p.Stock.Mul(p.PurchasePrice))
	}
	return total
}

// LastActivityDate is the latest movement date touching productId, or "".
func (s *Snapshot) LastActivityDate(productId string) string {
	last := ""
	for _, t := range s.Transactions {
		if t.Date <= last {
			continue
		}
		for _, item := range t.Items {
			if item.ProductId == productId {
				last = t.Date
				break
			}
		}
	}
	return last
}

func (s *Snapshot) ProductStockViews(products []Product) []ProductStockView {
	views := make([]ProductStockView, 0, len(products))
	for _, p := range products {
		pipeline := s.PipelineStock(p.ID)
		views = append(views, ProductStockView{
			Product:   p.clone(),
			Incoming:  pipeline.Incoming,
			Committed: pipeline.Committed,
			Available: p.Stock.Sub(pipeline.Committed),
			LastDate:  s.LastActivityDate(p.ID),
		})
	}
	return views
}
