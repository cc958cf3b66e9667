package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrDuplicateId         = errors.New("duplicate id")
	ErrUnknownUnit         = errors.New("unknown unit")
	ErrInvalidConversion   = errors.New("invalid unit conversion")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrMissingDocumentDate = errors.New("document date is required")
	ErrInvalidTransition   = errors.New("invalid order status transition")
	ErrEmptyItemSet        = errors.New("no valid line items")
	ErrUnknownProduct      = errors.New("unknown product")
	ErrUnknownTransaction  = errors.New("unknown transaction")
	ErrUnknownOrder        = errors.New("unknown order")
	ErrInvalidInput        = errors.New("invalid input")
)

// InsufficientStockError names the product that blocked an outward batch.
type InsufficientStockError struct {
	ProductId   string
	ProductName string
	BaseUnit    string
	Required    decimal.Decimal
	Available   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: required %s %s, available %s %s",
		e.ProductName, e.Required.String(), e.BaseUnit, e.Available.String(), e.BaseUnit)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// UnknownProductName is shown wherever a product reference no longer resolves.
const UnknownProductName = "Unknown"
