package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AlternateUnit converts to the owning product's base unit: one Name equals Factor base units.
type AlternateUnit struct {
	ProductId string          `gorm:"primaryKey;size:64" json:"-"`
	SeqNo     int             `gorm:"primaryKey;autoIncrement:false" json:"-"`
	Name      string          `gorm:"size:50;not null" json:"name" validate:"required"`
	Factor    decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"factor"`
}

// ResolveFactor returns how many base units one unitName of product represents.
func ResolveFactor(product *Product, unitName string) (decimal.Decimal, error) {
	if product == nil {
		return decimal.Zero, ErrUnknownProduct
	}
	if unitName == product.BaseUnit {
		return decimal.NewFromInt(1), nil
	}
	for _, u := range product.AlternateUnits {
		if u.Name == unitName {
			return u.Factor, nil
		}
	}
	return decimal.Zero, fmt.Errorf("%w: %q for product %s", ErrUnknownUnit, unitName, product.ID)
}

// ValidateUnits rejects empty names, non-positive factors and name collisions
// with the base unit or between alternate units.
func ValidateUnits(baseUnit string, units []AlternateUnit) error {
	if strings.TrimSpace(baseUnit) == "" {
		return fmt.Errorf("%w: base unit is required", ErrInvalidConversion)
	}
	seen := map[string]bool{baseUnit: true}
	for _, u := range units {
		if strings.TrimSpace(u.Name) == "" {
			return fmt.Errorf("%w: alternate unit name is required", ErrInvalidConversion)
		}
		if !u.Factor.IsPositive() {
			return fmt.Errorf("%w: factor of %q must be greater than zero", ErrInvalidConversion, u.Name)
		}
		if seen[u.Name] {
			return fmt.Errorf("%w: duplicate unit name %q", ErrInvalidConversion, u.Name)
		}
		seen[u.Name] = true
	}
	return nil
}

func cloneUnits(units []AlternateUnit) []AlternateUnit {
	if units == nil {
		return []AlternateUnit{}
	}
	out := make([]AlternateUnit, len(units))
	copy(out, units)
	return out
}
