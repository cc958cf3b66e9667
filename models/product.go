package models

import (
	"fmt"
	"strings"

	"github.com/mmdatafocus/stock_ledger/config"
	"github.com/mmdatafocus/stock_ledger/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Product struct {
	ID             string          `gorm:"primaryKey;size:64" json:"id"`
	Name           string          `gorm:"size:200;not null" json:"name"`
	Sku            string          `gorm:"index;size:100" json:"sku"`
	Category       string          `gorm:"index;size:100" json:"category"`
	Brand          string          `gorm:"size:100" json:"brand"`
	Manufacturer   string          `gorm:"size:100" json:"manufacturer"`
	BaseUnit       string          `gorm:"size:50;not null" json:"base_unit"`
	AlternateUnits []AlternateUnit `gorm:"foreignKey:ProductId;references:ID" json:"alternate_units"`
	Stock          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"stock"`
	MinLevel       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"min_level"`
	PurchasePrice  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"purchase_price"`
	SellingPrice   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"selling_price"`
	Position       int             `gorm:"index;not null;default:0" json:"-"`
}

type NewProduct struct {
	ID             string          `json:"id"`
	Name           string          `json:"name" validate:"required"`
	Sku            string          `json:"sku"`
	Category       string          `json:"category"`
	Brand          string          `json:"brand"`
	Manufacturer   string          `json:"manufacturer"`
	BaseUnit       string          `json:"base_unit" validate:"required"`
	AlternateUnits []AlternateUnit `json:"alternate_units" validate:"dive"`
	Stock          decimal.Decimal `json:"stock"`
	MinLevel       decimal.Decimal `json:"min_level"`
	PurchasePrice  decimal.Decimal `json:"purchase_price"`
	SellingPrice   decimal.Decimal `json:"selling_price"`
}

// ProductPatch lists the fields an update may change; nil means unchanged.
// Stock is absent on purpose: only the ledger writes it.
type ProductPatch struct {
	Name           *string          `json:"name"`
	Sku            *string          `json:"sku"`
	Category       *string          `json:"category"`
	Brand          *string          `json:"brand"`
	Manufacturer   *string          `json:"manufacturer"`
	BaseUnit       *string          `json:"base_unit"`
	AlternateUnits *[]AlternateUnit `json:"alternate_units"`
	MinLevel       *decimal.Decimal `json:"min_level"`
	PurchasePrice  *decimal.Decimal `json:"purchase_price"`
	SellingPrice   *decimal.Decimal `json:"selling_price"`
}

func (p Product) clone() Product {
	p.AlternateUnits = cloneUnits(p.AlternateUnits)
	return p
}

func (input *NewProduct) validate() error {
	if err := utils.ValidateStruct(input); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return ValidateUnits(input.BaseUnit, input.AlternateUnits)
}

func (s *Snapshot) productIndex(id string) int {
	for i := range s.Products {
		if s.Products[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Snapshot) lookupProduct(id string) (*Product, bool) {
	if i := s.productIndex(id); i >= 0 {
		return &s.Products[i], true
	}
	return nil, false
}

// ProductName resolves a weak product reference for display.
func (s *Snapshot) ProductName(id string) string {
	if p, ok := s.lookupProduct(id); ok {
		return p.Name
	}
	return UnknownProductName
}

func (inv *Inventory) GetProduct(id string) (*Product, error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return getProduct(inv.state, id)
}

func (tx *InventoryTx) GetProduct(id string) (*Product, error) {
	return getProduct(tx.state(), id)
}

func getProduct(s *Snapshot, id string) (*Product, error) {
	p, ok := s.lookupProduct(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, id)
	}
	result := p.clone()
	return &result, nil
}

// GetProducts returns the catalog in insertion order.
func (inv *Inventory) GetProducts() []Product {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	results := make([]Product, len(inv.state.Products))
	for i := range inv.state.Products {
		results[i] = inv.state.Products[i].clone()
	}
	return results
}

func (tx *InventoryTx) AddProduct(input *NewProduct) (*Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	s := tx.state()
	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = tx.inv.newId()
	}
	if s.productIndex(id) >= 0 {
		return nil, fmt.Errorf("%w: product %s", ErrDuplicateId, id)
	}

	sku := strings.TrimSpace(input.Sku)
	if sku == "" {
		sku = utils.GenerateSku(input.Category, input.Brand)
	}

	product := Product{
		ID:             id,
		Name:           input.Name,
		Sku:            sku,
		Category:       input.Category,
		Brand:          input.Brand,
		Manufacturer:   input.Manufacturer,
		BaseUnit:       input.BaseUnit,
		AlternateUnits: cloneUnits(input.AlternateUnits),
		Stock:          input.Stock,
		MinLevel:       input.MinLevel,
		PurchasePrice:  input.PurchasePrice,
		SellingPrice:   input.SellingPrice,
	}
	s.Products = append(s.Products, product)

	config.LogInfo(config.GetLogger(), "Product", "AddProduct", "product added", logrus.Fields{"product_id": id, "sku": sku})
	result := product.clone()
	return &result, nil
}

func (tx *InventoryTx) UpdateProduct(id string, patch *ProductPatch) (*Product, error) {
	s := tx.state()
	i := s.productIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, id)
	}
	updated := s.Products[i].clone()

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		updated.Name = *patch.Name
	}
	if patch.Sku != nil {
		updated.Sku = *patch.Sku
	}
	if patch.Category != nil {
		updated.Category = *patch.Category
	}
	if patch.Brand != nil {
		updated.Brand = *patch.Brand
	}
	if patch.Manufacturer != nil {
		updated.Manufacturer = *patch.Manufacturer
	}
	if patch.BaseUnit != nil {
		updated.BaseUnit = *patch.BaseUnit
	}
	if patch.AlternateUnits != nil {
		updated.AlternateUnits = cloneUnits(*patch.AlternateUnits)
	}
	if patch.BaseUnit != nil || patch.AlternateUnits != nil {
		if err := ValidateUnits(updated.BaseUnit, updated.AlternateUnits); err != nil {
			return nil, err
		}
	}
	if patch.MinLevel != nil {
		updated.MinLevel = *patch.MinLevel
	}
	if patch.PurchasePrice != nil {
		updated.PurchasePrice = *patch.PurchasePrice
	}
	if patch.SellingPrice != nil {
		updated.SellingPrice = *patch.SellingPrice
	}

	s.Products[i] = updated
	result := updated.clone()
	return &result, nil
}

// DeleteProduct removes the product only; history keeps its snapshots and ids.
func (tx *InventoryTx) DeleteProduct(id string) (*Product, error) {
	s := tx.state()
	i := s.productIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, id)
	}
	removed := s.Products[i]
	s.Products = append(s.Products[:i], s.Products[i+1:]...)

	config.LogInfo(config.GetLogger(), "Product", "DeleteProduct", "product deleted", logrus.Fields{"product_id": id})
	return &removed, nil
}

// adjustStock is the only writer of Product.Stock. Stock may go negative.
func (tx *InventoryTx) adjustStock(id string, delta decimal.Decimal) error {
	p, ok := tx.state().lookupProduct(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProduct, id)
	}
	p.Stock = p.Stock.Add(delta)
	return nil
}
