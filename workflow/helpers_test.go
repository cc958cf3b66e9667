package workflow

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/mmdatafocus/stock_ledger/models"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []StockEvent
}

func (r *recordingPublisher) Publish(ctx context.Context, event StockEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]EventKind, 0, len(r.events))
	for _, e := range r.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func usePublisher(t *testing.T) *recordingPublisher {
	t.Helper()
	rec := &recordingPublisher{}
	SetPublisher(rec)
	t.Cleanup(func() { SetPublisher(nil) })
	return rec
}

// newWidgetInventory holds "w1": 100 Pcs, Box = 10 Pcs, purchase 2, selling 3.
func newWidgetInventory(t *testing.T) *models.Inventory {
	t.Helper()
	n := 0
	inv := models.NewInventory(
		models.WithIdGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }),
		models.WithClock(func() string { return "2024-06-15" }),
	)
	err := inv.Update(context.Background(), func(tx *models.InventoryTx) error {
		_, err := tx.AddProduct(&models.NewProduct{
			ID:             "w1",
			Name:           "Widget",
			BaseUnit:       "Pcs",
			AlternateUnits: []models.AlternateUnit{{Name: "Box", Factor: d("10")}},
			Stock:          d("100"),
			PurchasePrice:  d("2"),
			SellingPrice:   d("3"),
		})
		return err
	})
	if err != nil {
		t.Fatalf("AddProduct: %v", err)
	}
	return inv
}

func stockOf(t *testing.T, inv *models.Inventory, id string) decimal.Decimal {
	t.Helper()
	p, err := inv.GetProduct(id)
	if err != nil {
		t.Fatalf("GetProduct(%s): %v", id, err)
	}
	return p.Stock
}

func entry(lines ...EntryLine) *StockEntryInput {
	return &StockEntryInput{
		DocumentDate:   "2024-06-14",
		DocumentNumber: "DOC-1",
		PartyName:      "Party",
		Lines:          lines,
	}
}
