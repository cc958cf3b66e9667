package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmdatafocus/stock_ledger/config"
	"github.com/mmdatafocus/stock_ledger/models"
	"github.com/mmdatafocus/stock_ledger/utils"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// StockEntryInput is a bulk inward or outward entry.
type StockEntryInput struct {
	Date           string              `json:"date" validate:"omitempty,datetime=2006-01-02"`
	DocumentDate   string              `json:"document_date" validate:"omitempty,datetime=2006-01-02"`
	DocumentType   models.DocumentType `json:"document_type" validate:"omitempty,oneof=INVOICE CHALLAN"`
	DocumentNumber string              `json:"document_number" validate:"required"`
	PartyName      string              `json:"party_name" validate:"required"`
	Lines          []EntryLine         `json:"lines"`
}

func (input *StockEntryInput) validate() error {
	if strings.TrimSpace(input.DocumentDate) == "" {
		return models.ErrMissingDocumentDate
	}
	if err := utils.ValidateStruct(input); err != nil {
		return fmt.Errorf("%w: %w", models.ErrInvalidInput, err)
	}
	return nil
}

// CheckStockSufficiency rejects the whole batch when any product's summed
// base quantity exceeds its current stock.
func CheckStockSufficiency(lookup ProductLookup, items []models.TransactionLineItem) error {
	required := make(map[string]decimal.Decimal)
	var order []string
	for _, item := range items {
		if _, seen := required[item.ProductId]; !seen {
			order = append(order, item.ProductId)
		}
		required[item.ProductId] = required[item.ProductId].Add(item.Quantity.Mul(item.ConversionFactor))
	}

	for _, id := range order {
		product, err := lookup.GetProduct(id)
		if err != nil {
			return err
		}
		if required[id].GreaterThan(product.Stock) {
			return &models.InsufficientStockError{
				ProductId:   id,
				ProductName: product.Name,
				BaseUnit:    product.BaseUnit,
				Required:    required[id],
				Available:   product.Stock,
			}
		}
	}
	return nil
}

func productIdsOf(items []models.TransactionLineItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductId)
	}
	return ids
}

// BulkInward records received stock. Prices default to purchase prices.
func BulkInward(ctx context.Context, inv *models.Inventory, input *StockEntryInput) (*models.Transaction, error) {
	return recordMovement(ctx, inv, input, models.TransactionTypeIn, "BulkInward")
}

// BulkOutward records dispatched stock after the sufficiency check.
// Prices default to selling prices.
func BulkOutward(ctx context.Context, inv *models.Inventory, input *StockEntryInput) (*models.Transaction, error) {
	return recordMovement(ctx, inv, input, models.TransactionTypeOut, "BulkOutward")
}

func recordMovement(ctx context.Context, inv *models.Inventory, input *StockEntryInput, movement models.TransactionType, funcName string) (result *models.Transaction, err error) {
	ctx, span := startSpan(ctx, funcName, attribute.String("movement", string(movement)))
	defer func() { endSpan(span, err) }()
	logger := config.GetLogger()

	if err = input.validate(); err != nil {
		config.LogError(logger, "stockMovement.go", funcName, "validate", input, err)
		return nil, err
	}
	date := input.Date
	if date == "" {
		date = inv.Today()
	}

	err = inv.Update(ctx, func(tx *models.InventoryTx) error {
		lines, err := resolveEntryLines(tx, input.Lines, movement)
		if err != nil {
			return err
		}
		items := transactionLines(lines)
		if movement == models.TransactionTypeOut {
			if err := CheckStockSufficiency(tx, items); err != nil {
				return err
			}
		}
		result, err = tx.AddTransaction(models.Transaction{
			Date:           date,
			DocumentDate:   input.DocumentDate,
			Type:           movement,
			DocumentType:   input.DocumentType,
			DocumentNumber: input.DocumentNumber,
			PartyName:      input.PartyName,
			Items:          items,
			TotalAmount:    models.LineTotal(items),
		})
		return err
	})
	if err != nil {
		config.LogError(logger, "stockMovement.go", funcName, "commit", input, err)
		return nil, err
	}

	publishEvent(ctx, EventStockMoved, result.ID, productIdsOf(result.Items))
	return result, nil
}

// EditTransaction rebuilds a stored movement from rows, keeping its id, type and
// history position. Lines whose product and unit are unchanged keep their committed
// factor. Empty date or document type keep the stored values.
func EditTransaction(ctx context.Context, inv *models.Inventory, id string, input *StockEntryInput) (result *models.Transaction, err error) {
	ctx, span := startSpan(ctx, "EditTransaction", attribute.String("transaction_id", id))
	defer func() { endSpan(span, err) }()
	logger := config.GetLogger()

	if err = input.validate(); err != nil {
		config.LogError(logger, "stockMovement.go", "EditTransaction", "validate", input, err)
		return nil, err
	}

	var touched []string
	err = inv.Update(ctx, func(tx *models.InventoryTx) error {
		old, err := tx.GetTransaction(id)
		if err != nil {
			return err
		}
		lines, err := resolveEditedLines(tx, input.Lines, old.Items, old.Type)
		if err != nil {
			return err
		}
		items := transactionLines(lines)

		if old.Type == models.TransactionTypeOut {
			// check against stock with the old version released
			released := *old
			released.Items = nil
			if _, err := tx.UpdateTransaction(id, released); err != nil {
				return err
			}
			if err := CheckStockSufficiency(tx, items); err != nil {
				return err
			}
		}

		updated := models.Transaction{
			ID:             id,
			Date:           input.Date,
			DocumentDate:   input.DocumentDate,
			Type:           old.Type,
			DocumentType:   input.DocumentType,
			DocumentNumber: input.DocumentNumber,
			PartyName:      input.PartyName,
			Items:          items,
			TotalAmount:    models.LineTotal(items),
		}
		if updated.Date == "" {
			updated.Date = old.Date
		}
		if updated.DocumentType == "" {
			updated.DocumentType = old.DocumentType
		}
		result, err = tx.UpdateTransaction(id, updated)
		touched = append(productIdsOf(old.Items), productIdsOf(items)...)
		return err
	})
	if err != nil {
		config.LogError(logger, "stockMovement.go", "EditTransaction", "commit", id, err)
		return nil, err
	}

	publishEvent(ctx, EventTransactionEdited, id, touched)
	return result, nil
}

// RemoveTransaction reverses a stored movement and drops it from history.
func RemoveTransaction(ctx context.Context, inv *models.Inventory, id string) (result *models.Transaction, err error) {
	ctx, span := startSpan(ctx, "RemoveTransaction", attribute.String("transaction_id", id))
	defer func() { endSpan(span, err) }()

	err = inv.Update(ctx, func(tx *models.InventoryTx) error {
		result, err = tx.DeleteTransaction(id)
		return err
	})
	if err != nil {
		config.LogError(config.GetLogger(), "stockMovement.go", "RemoveTransaction", "commit", id, err)
		return nil, err
	}

	publishEvent(ctx, EventTransactionRemoved, id, productIdsOf(result.Items))
	return result, nil
}
