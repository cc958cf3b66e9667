package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmdatafocus/stock_ledger/config"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Transaction struct {
	ID             string                `gorm:"primaryKey;size:64" json:"id"`
	Date           string                `gorm:"size:10;index;not null" json:"date"`
	DocumentDate   string                `gorm:"size:10" json:"document_date"`
	Type           TransactionType       `gorm:"type:enum('IN','OUT');not null" json:"type"`
	DocumentType   DocumentType          `gorm:"type:enum('INVOICE','CHALLAN');default:INVOICE;not null" json:"document_type"`
	DocumentNumber string                `gorm:"size:100" json:"document_number"`
	PartyName      string                `gorm:"size:200" json:"party_name"`
	Items          []TransactionLineItem `gorm:"foreignKey:TransactionId;references:ID" json:"items"`
	TotalAmount    decimal.Decimal       `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	Position       int                   `gorm:"index;not null;default:0" json:"-"`
}

// TransactionLineItem freezes the product name and conversion factor at commit time.
type TransactionLineItem struct {
	TransactionId    string          `gorm:"primaryKey;size:64" json:"-"`
	SeqNo            int             `gorm:"primaryKey;autoIncrement:false" json:"-"`
	ProductId        string          `gorm:"index;size:64" json:"product_id"`
	ProductName      string          `gorm:"size:200" json:"product_name"`
	Quantity         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	Unit             string          `gorm:"size:50" json:"unit"`
	ConversionFactor decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"conversion_factor"`
	FinalQuantity    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"final_quantity"`
	Price            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price"`
}

func (t Transaction) clone() Transaction {
	if t.Items != nil {
		items := make([]TransactionLineItem, len(t.Items))
		copy(items, t.Items)
		t.Items = items
	}
	return t
}

// BaseQuantities sums final quantities per product id.
func (t *Transaction) BaseQuantities() map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, item := range t.Items {
		totals[item.ProductId] = totals[item.ProductId].Add(item.FinalQuantity)
	}
	return totals
}

// LineTotal is Σ quantity × factor × price.
func LineTotal(items []TransactionLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Quantity.Mul(item.ConversionFactor).Mul(item.Price))
	}
	return total
}

func (s *Snapshot) transactionIndex(id string) int {
	for i := range s.Transactions {
		if s.Transactions[i].ID == id {
			return i
		}
	}
	return -1
}

func (inv *Inventory) GetTransaction(id string) (*Transaction, error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return getTransaction(inv.state, id)
}

func (tx *InventoryTx) GetTransaction(id string) (*Transaction, error) {
	return getTransaction(tx.state(), id)
}

func getTransaction(s *Snapshot, id string) (*Transaction, error) {
	i := s.transactionIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransaction, id)
	}
	result := s.Transactions[i].clone()
	return &result, nil
}

// GetTransactions returns history newest-first by insertion.
func (inv *Inventory) GetTransactions() []Transaction {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	results := make([]Transaction, len(inv.state.Transactions))
	for i := range inv.state.Transactions {
		results[i] = inv.state.Transactions[i].clone()
	}
	return results
}

// prepareTransaction recomputes final quantities and fills missing name snapshots.
// Every line must reference a live product with a positive factor.
func (tx *InventoryTx) prepareTransaction(t *Transaction) error {
	if !t.Type.IsValid() {
		return fmt.Errorf("%w: transaction type %q", ErrInvalidInput, t.Type)
	}
	if t.DocumentType == "" {
		t.DocumentType = DocumentTypeInvoice
	}
	if !t.DocumentType.IsValid() {
		return fmt.Errorf("%w: document type %q", ErrInvalidInput, t.DocumentType)
	}

	s := tx.state()
	items := make([]TransactionLineItem, len(t.Items))
	for i, item := range t.Items {
		product, ok := s.lookupProduct(item.ProductId)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownProduct, item.ProductId)
		}
		if !item.ConversionFactor.IsPositive() {
			return fmt.Errorf("%w: factor of line %d must be greater than zero", ErrInvalidConversion, i+1)
		}
		if strings.TrimSpace(item.ProductName) == "" {
			item.ProductName = product.Name
		}
		item.FinalQuantity = item.Quantity.Mul(item.ConversionFactor)
		item.TransactionId = t.ID
		item.SeqNo = i
		items[i] = item
	}
	t.Items = items
	return nil
}

// applyTransaction moves stock by every line's final quantity in the transaction's
// direction, or against it when reverse is set. Lines are pre-checked so either
// all deltas apply or none do.
func (tx *InventoryTx) applyTransaction(t *Transaction, reverse bool) error {
	sign := decimal.NewFromInt(t.Type.direction())
	if reverse {
		sign = sign.Neg()
	}
	s := tx.state()
	if !reverse {
		for _, item := range t.Items {
			if _, ok := s.lookupProduct(item.ProductId); !ok {
				return fmt.Errorf("%w: %s", ErrUnknownProduct, item.ProductId)
			}
		}
	}
	for _, item := range t.Items {
		err := tx.adjustStock(item.ProductId, item.FinalQuantity.Mul(sign))
		if errors.Is(err, ErrUnknownProduct) && reverse {
			// deleted since commit, nothing to restore
			continue
		} else if err != nil {
			return err
		}
	}
	return nil
}

// AddTransaction commits a stock movement and prepends it to history.
// It does not check stock sufficiency.
func (tx *InventoryTx) AddTransaction(t Transaction) (*Transaction, error) {
	t = t.clone()
	t.ID = strings.TrimSpace(t.ID)
	if t.ID == "" {
		t.ID = tx.inv.newId()
	}
	s := tx.state()
	if s.transactionIndex(t.ID) >= 0 {
		return nil, fmt.Errorf("%w: transaction %s", ErrDuplicateId, t.ID)
	}
	if err := tx.prepareTransaction(&t); err != nil {
		return nil, err
	}
	if err := tx.applyTransaction(&t, false); err != nil {
		return nil, err
	}

	s.Transactions = append([]Transaction{t}, s.Transactions...)

	config.LogInfo(config.GetLogger(), "Transaction", "AddTransaction", "transaction committed", logrus.Fields{
		"transaction_id": t.ID, "type": t.Type, "lines": len(t.Items),
	})
	result := t.clone()
	return &result, nil
}

// UpdateTransaction reverses the stored effect, then applies newData in place.
// Id and history position are kept. On error the caller rolls the InventoryTx back.
func (tx *InventoryTx) UpdateTransaction(id string, newData Transaction) (*Transaction, error) {
	s := tx.state()
	i := s.transactionIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransaction, id)
	}

	updated := newData.clone()
	updated.ID = id
	if err := tx.prepareTransaction(&updated); err != nil {
		return nil, err
	}

	old := s.Transactions[i]
	if err := tx.applyTransaction(&old, true); err != nil {
		return nil, err
	}
	if err := tx.applyTransaction(&updated, false); err != nil {
		return nil, err
	}
	s.Transactions[i] = updated

	config.LogInfo(config.GetLogger(), "Transaction", "UpdateTransaction", "transaction recomputed", logrus.Fields{
		"transaction_id": id, "type": updated.Type, "lines": len(updated.Items),
	})
	result := updated.clone()
	return &result, nil
}

// DeleteTransaction reverses the stored effect and drops the record.
func (tx *InventoryTx) DeleteTransaction(id string) (*Transaction, error) {
	s := tx.state()
	i := s.transactionIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransaction, id)
	}
	old := s.Transactions[i]
	if err := tx.applyTransaction(&old, true); err != nil {
		return nil, err
	}
	s.Transactions = append(s.Transactions[:i], s.Transactions[i+1:]...)

	config.LogInfo(config.GetLogger(), "Transaction", "DeleteTransaction", "transaction reversed", logrus.Fields{"transaction_id": id})
	return &old, nil
}
