package models

import (
	"errors"
	"strings"
)

type TransactionType string

const (
	TransactionTypeIn  TransactionType = "IN"
	TransactionTypeOut TransactionType = "OUT"
)

func (t TransactionType) IsValid() bool {
	return t == TransactionTypeIn || t == TransactionTypeOut
}

// sign of the stock delta this movement applies
func (t TransactionType) direction() int64 {
	if t == TransactionTypeOut {
		return -1
	}
	return 1
}

// convert input to enum type
func (t *TransactionType) UnmarshalText(b []byte) error {
	transactionType := map[string]TransactionType{
		"IN":  TransactionTypeIn,
		"OUT": TransactionTypeOut,
	}

	var ok bool
	*t, ok = transactionType[strings.ToUpper(strings.TrimSpace(string(b)))]
	if !ok {
		return errors.New("invalid transaction type")
	}
	return nil
}

type DocumentType string

const (
	DocumentTypeInvoice DocumentType = "INVOICE"
	DocumentTypeChallan DocumentType = "CHALLAN"
)

func (t DocumentType) IsValid() bool {
	return t == DocumentTypeInvoice || t == DocumentTypeChallan
}

func (t *DocumentType) UnmarshalText(b []byte) error {
	// empty means "not given"; writers default it to INVOICE
	documentType := map[string]DocumentType{
		"":        "",
		"INVOICE": DocumentTypeInvoice,
		"CHALLAN": DocumentTypeChallan,
	}

	var ok bool
	*t, ok = documentType[strings.ToUpper(strings.TrimSpace(string(b)))]
	if !ok {
		return errors.New("invalid document type")
	}
	return nil
}

type OrderType string

const (
	OrderTypePurchase OrderType = "PURCHASE"
	OrderTypeSales    OrderType = "SALES"
)

func (t OrderType) IsValid() bool {
	return t == OrderTypePurchase || t == OrderTypeSales
}

// TransactionType is the ledger movement that fulfilling an order of this type produces.
func (t OrderType) TransactionType() TransactionType {
	if t == OrderTypePurchase {
		return TransactionTypeIn
	}
	return TransactionTypeOut
}

func (t *OrderType) UnmarshalText(b []byte) error {
	// empty is left for the required check to report
	orderType := map[string]OrderType{
		"":         "",
		"PURCHASE": OrderTypePurchase,
		"SALES":    OrderTypeSales,
	}

	var ok bool
	*t, ok = orderType[strings.ToUpper(strings.TrimSpace(string(b)))]
	if !ok {
		return errors.New("invalid order type")
	}
	return nil
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

func (s *OrderStatus) UnmarshalText(b []byte) error {
	orderStatus := map[string]OrderStatus{
		"PENDING":   OrderStatusPending,
		"COMPLETED": OrderStatusCompleted,
		"CANCELLED": OrderStatusCancelled,
	}

	var ok bool
	*s, ok = orderStatus[strings.ToUpper(strings.TrimSpace(string(b)))]
	if !ok {
		return errors.New("invalid order status")
	}
	return nil
}
