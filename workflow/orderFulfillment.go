package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmdatafocus/stock_ledger/config"
	"github.com/mmdatafocus/stock_ledger/models"
	"github.com/mmdatafocus/stock_ledger/utils"
	"go.opentelemetry.io/otel/attribute"
)

type OrderInput struct {
	Date         string           `json:"date" validate:"omitempty,datetime=2006-01-02"`
	ExpectedDate string           `json:"expected_date" validate:"omitempty,datetime=2006-01-02"`
	Type         models.OrderType `json:"type" validate:"required,oneof=PURCHASE SALES"`
	PartyName    string           `json:"party_name" validate:"required"`
	OrderNumber  string           `json:"order_number" validate:"required"`
	Lines        []EntryLine      `json:"lines"`
}

type ConfirmOrderInput struct {
	OrderId      string `json:"order_id"`
	PhysicalDate string `json:"physical_date" validate:"omitempty,datetime=2006-01-02"`
	DocumentDate string `json:"document_date" validate:"omitempty,datetime=2006-01-02"`
}

func orderProductIds(order *models.Order) []string {
	ids := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ProductId)
	}
	return ids
}

// CreateOrder records a pending order. Factors are captured now; prices default
// to purchase prices for purchases and selling prices for sales.
func CreateOrder(ctx context.Context, inv *models.Inventory, input *OrderInput) (result *models.Order, err error) {
	ctx, span := startSpan(ctx, "CreateOrder", attribute.String("order_type", string(input.Type)))
	defer func() { endSpan(span, err) }()
	logger := config.GetLogger()

	if err = utils.ValidateStruct(input); err != nil {
		err = fmt.Errorf("%w: %w", models.ErrInvalidInput, err)
		config.LogError(logger, "orderFulfillment.go", "CreateOrder", "validate", input, err)
		return nil, err
	}
	date := input.Date
	if date == "" {
		date = inv.Today()
	}

	err = inv.Update(ctx, func(tx *models.InventoryTx) error {
		lines, err := resolveEntryLines(tx, input.Lines, input.Type.TransactionType())
		if err != nil {
			return err
		}
		items := orderLines(lines)
		result, err = tx.AddOrder(models.Order{
			Date:         date,
			ExpectedDate: input.ExpectedDate,
			Type:         input.Type,
			PartyName:    input.PartyName,
			OrderNumber:  input.OrderNumber,
			Items:        items,
			TotalAmount:  models.OrderTotal(items),
		})
		return err
	})
	if err != nil {
		config.LogError(logger, "orderFulfillment.go", "CreateOrder", "commit", input, err)
		return nil, err
	}

	publishEvent(ctx, EventOrderCreated, result.ID, orderProductIds(result))
	return result, nil
}

// SynthesizeTransaction builds the ledger movement that fulfils order. Product
// names come from the catalog, or "Unknown" when the product is gone.
func SynthesizeTransaction(lookup ProductLookup, order *models.Order, physicalDate string, documentDate string, carryOrderTotal bool) models.Transaction {
	items := make([]models.TransactionLineItem, 0, len(order.Items))
	for _, item := range order.Items {
		name := models.UnknownProductName
		if product, err := lookup.GetProduct(item.ProductId); err == nil {
			name = product.Name
		}
		items = append(items, models.TransactionLineItem{
			ProductId:        item.ProductId,
			ProductName:      name,
			Quantity:         item.Quantity,
			Unit:             item.Unit,
			ConversionFactor: item.Factor,
			FinalQuantity:    item.Quantity.Mul(item.Factor),
			Price:            item.Price,
		})
	}

	total := models.LineTotal(items)
	if carryOrderTotal {
		total = order.TotalAmount
	}

	return models.Transaction{
		Date:           physicalDate,
		DocumentDate:   documentDate,
		Type:           order.Type.TransactionType(),
		DocumentType:   models.DocumentTypeInvoice,
		DocumentNumber: order.OrderNumber,
		PartyName:      order.PartyName,
		Items:          items,
		TotalAmount:    total,
	}
}

// ConfirmOrder turns a pending order into a ledger transaction and marks it
// COMPLETED. Both happen in one inventory transaction; on any failure the order
// stays PENDING and no transaction exists.
func ConfirmOrder(ctx context.Context, inv *models.Inventory, input *ConfirmOrderInput) (txn *models.Transaction, order *models.Order, err error) {
	ctx, span := startSpan(ctx, "ConfirmOrder", attribute.String("order_id", input.OrderId))
	defer func() { endSpan(span, err) }()
	logger := config.GetLogger()

	if strings.TrimSpace(input.DocumentDate) == "" {
		err = models.ErrMissingDocumentDate
		config.LogError(logger, "orderFulfillment.go", "ConfirmOrder", "validate", input, err)
		return nil, nil, err
	}
	if err = utils.ValidateStruct(input); err != nil {
		err = fmt.Errorf("%w: %w", models.ErrInvalidInput, err)
		config.LogError(logger, "orderFulfillment.go", "ConfirmOrder", "validate", input, err)
		return nil, nil, err
	}
	physicalDate := input.PhysicalDate
	if physicalDate == "" {
		physicalDate = inv.Today()
	}

	err = inv.Update(ctx, func(tx *models.InventoryTx) error {
		pending, err := tx.GetOrder(input.OrderId)
		if err != nil {
			return err
		}
		if pending.Status != models.OrderStatusPending {
			return fmt.Errorf("%w: order %s is %s", models.ErrInvalidTransition, pending.ID, pending.Status)
		}

		synthesized := SynthesizeTransaction(tx, pending, physicalDate, input.DocumentDate, config.CarryOrderTotalOnConfirm())
		if synthesized.Type == models.TransactionTypeOut {
			if err := CheckStockSufficiency(tx, synthesized.Items); err != nil {
				return err
			}
		}
		if txn, err = tx.AddTransaction(synthesized); err != nil {
			return err
		}
		order, err = tx.UpdateOrderStatus(pending.ID, models.OrderStatusCompleted)
		return err
	})
	if err != nil {
		config.LogError(logger, "orderFulfillment.go", "ConfirmOrder", "commit", input, err)
		return nil, nil, err
	}

	publishEvent(ctx, EventOrderCompleted, order.ID, orderProductIds(order))
	return txn, order, nil
}

// CancelOrder moves a pending order to CANCELLED. Stock is untouched.
func CancelOrder(ctx context.Context, inv *models.Inventory, id string) (result *models.Order, err error) {
	ctx, span := startSpan(ctx, "CancelOrder", attribute.String("order_id", id))
	defer func() { endSpan(span, err) }()

	err = inv.Update(ctx, func(tx *models.InventoryTx) error {
		result, err = tx.UpdateOrderStatus(id, models.OrderStatusCancelled)
		return err
	})
	if err != nil {
		config.LogError(config.GetLogger(), "orderFulfillment.go", "CancelOrder", "commit", id, err)
		return nil, err
	}

	publishEvent(ctx, EventOrderCancelled, result.ID, orderProductIds(result))
	return result, nil
}
