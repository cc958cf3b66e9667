package models_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mmdatafocus/stock_ledger/models"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sequentialIds(prefix string) models.IdGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newTestInventory(t *testing.T, opts ...models.Option) *models.Inventory {
	t.Helper()
	base := []models.Option{
		models.WithIdGenerator(sequentialIds("id")),
		models.WithClock(func() string { return "2024-05-01" }),
	}
	return models.NewInventory(append(base, opts...)...)
}

// boxProduct is 100 Pcs with Box = 10 Pcs.
func boxProduct(id string) *models.NewProduct {
	return &models.NewProduct{
		ID:             id,
		Name:           "Widget " + id,
		Category:       "Hardware",
		Brand:          "Acme",
		BaseUnit:       "Pcs",
		AlternateUnits: []models.AlternateUnit{{Name: "Box", Factor: d("10")}},
		Stock:          d("100"),
		MinLevel:       d("20"),
		PurchasePrice:  d("2.5"),
		SellingPrice:   d("4"),
	}
}

func mustAddProduct(t *testing.T, inv *models.Inventory, input *models.NewProduct) *models.Product {
	t.Helper()
	var product *models.Product
	err := inv.Update(context.Background(), func(tx *models.InventoryTx) error {
		var err error
		product, err = tx.AddProduct(input)
		return err
	})
	if err != nil {
		t.Fatalf("AddProduct(%s): %v", input.ID, err)
	}
	return product
}

func mustAddTransaction(t *testing.T, inv *models.Inventory, txn models.Transaction) *models.Transaction {
	t.Helper()
	var result *models.Transaction
	err := inv.Update(context.Background(), func(tx *models.InventoryTx) error {
		var err error
		result, err = tx.AddTransaction(txn)
		return err
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	return result
}

func stockOf(t *testing.T, inv *models.Inventory, id string) decimal.Decimal {
	t.Helper()
	p, err := inv.GetProduct(id)
	if err != nil {
		t.Fatalf("GetProduct(%s): %v", id, err)
	}
	return p.Stock
}

func assertStock(t *testing.T, inv *models.Inventory, id string, want string) {
	t.Helper()
	if got := stockOf(t, inv, id); !got.Equal(d(want)) {
		t.Fatalf("stock of %s = %s, want %s", id, got, want)
	}
}

func line(productId string, qty string, unit string, factor string, price string) models.TransactionLineItem {
	return models.TransactionLineItem{
		ProductId:        productId,
		Quantity:         d(qty),
		Unit:             unit,
		ConversionFactor: d(factor),
		Price:            d(price),
	}
}

type failingStore struct {
	models.MemoryStore
	fail bool
}

var errStoreDown = errors.New("store down")

func (f *failingStore) Save(ctx context.Context, snapshot *models.Snapshot) error {
	if f.fail {
		return errStoreDown
	}
	return f.MemoryStore.Save(ctx, snapshot)
}
