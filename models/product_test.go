package models_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/mmdatafocus/stock_ledger/models"
)

func TestAddProductAssignsIdAndSku(t *testing.T) {
	inv := newTestInventory(t)
	input := boxProduct("")
	input.Category = "Electrical"
	input.Brand = "Havells"

	product := mustAddProduct(t, inv, input)
	if product.ID != "id-1" {
		t.Fatalf("ID = %q, want id-1", product.ID)
	}
	if !regexp.MustCompile(`^ELE-HAV-[0-9A-Z]{4}$`).MatchString(product.Sku) {
		t.Fatalf("Sku = %q, want ELE-HAV-XXXX", product.Sku)
	}
	if !product.Stock.Equal(d("100")) {
		t.Fatalf("Stock = %s, want 100", product.Stock)
	}
}

func TestAddProductKeepsSuppliedSku(t *testing.T) {
	inv := newTestInventory(t)
	input := boxProduct("p1")
	input.Sku = "CUSTOM-1"
	if product := mustAddProduct(t, inv, input); product.Sku != "CUSTOM-1" {
		t.Fatalf("Sku = %q, want CUSTOM-1", product.Sku)
	}
}

func TestAddProductRejectsDuplicateId(t *testing.T) {
	inv := newTestInventory(t)
	mustAddProduct(t, inv, boxProduct("p1"))

	err := inv.Update(context.Background(), func(tx *models.InventoryTx) error {
		_, err := tx.AddProduct(boxProduct("p1"))
		return err
	})
	if !errors.Is(err, models.ErrDuplicateId) {
		t.Fatalf("err = %v, want ErrDuplicateId", err)
	}
	if n := len(inv.GetProducts()); n != 1 {
		t.Fatalf("catalog size = %d, want 1", n)
	}
}

func TestAddProductValidatesInput(t *testing.T) {
	inv := newTestInventory(t)

	noName := boxProduct("p1")
	noName.Name = ""
	badUnit := boxProduct("p2")
	badUnit.AlternateUnits = []models.AlternateUnit{{Name: "Pcs", Factor: d("1")}}

	cases := []struct {
		input *models.NewProduct
		want  error
	}{
		{noName, models.ErrInvalidInput},
		{badUnit, models.ErrInvalidConversion},
	}
	for _, tc := range cases {
		err := inv.Update(context.Background(), func(tx *models.InventoryTx) error {
			_, err := tx.AddProduct(tc.input)
			return err
		})
		if !errors.Is(err, tc.want) {
			t.Fatalf("AddProduct(%s) err = %v, want %v", tc.input.ID, err, tc.want)
		}
	}
	if n := len(inv.GetProducts()); n != 0 {
		t.Fatalf("catalog size = %d, want 0", n)
	}
}

func TestUpdateProductMergesFields(t *testing.T) {
	inv := newTestInventory(t)
	mustAddProduct(t, inv, boxProduct("p1"))

	name := "Renamed"
	price := d("9.99")
	units := []models.AlternateUnit{{Name: "Carton", Factor: d("50")}}
	var updated *models.Product
	err := inv.Update(context.Background(), func(tx *models.InventoryTx) error {
		var err error
		updated, err = tx.UpdateProduct("p1", &models.ProductPatch{Name: &name, SellingPrice: &price, AlternateUnits: &units})
		return err
	})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if updated.ID != "p1" || updated.Name != "Renamed" || !updated.SellingPrice.Equal(price) {
		t.Fatalf("unexpected product after update: %+v", updated)
	}
	if updated.Brand != "Acme" || !updated.Stock.Equal(d("100")) {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
	if len(updated.AlternateUnits) != 1 || updated.AlternateUnits[0].Name != "Carton" {
		t.Fatalf("AlternateUnits = %+v", updated.AlternateUnits)
	}
}

func TestUpdateProductRevalidatesUnits(t *testing.T) {
	inv := newTestInventory(t)
	mustAddProduct(t, inv, boxProduct("p1"))

	base := "Box"
	err := inv.Update(context.Background(), func(tx *models.InventoryTx) error {
		_, err := tx.UpdateProduct("p1", &models.ProductPatch{BaseUnit: &base})
		return err
	})
	if !errors.Is(err, models.ErrInvalidConversion) {
		t.Fatalf("err = %v, want ErrInvalidConversion", err)
	}
	p, _ := inv.GetProduct("p1")
	if p.BaseUnit != "Pcs" {
		t.Fatalf("BaseUnit = %q after rejected update", p.BaseUnit)
	}

	err = inv.Update(context.Background(), func(tx *models.InventoryTx) error {
		_, err := tx.UpdateProduct("missing", &models.ProductPatch{})
		return err
	})
	if !errors.Is(err, models.ErrUnknownProduct) {
		t.Fatalf("err = %v, want ErrUnknownProduct", err)
	}
}

func TestDeleteProductKeepsHistory(t *testing.T) {
	inv := newTestInventory(t)
	mustAddProduct(t, inv, boxProduct("p1"))
	txn := mustAddTransaction(t, inv, models.Transaction{
		Date:  "2024-05-01",
		Type:  models.TransactionTypeIn,
		Items: []models.TransactionLineItem{line("p1", "1", "Box", "10", "25")},
	})

	err := inv.Update(context.Background(), func(tx *models.InventoryTx) error {
		_, err := tx.DeleteProduct("p1")
		return err
	})
	if err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if _, err := inv.GetProduct("p1"); !errors.Is(err, models.ErrUnknownProduct) {
		t.Fatalf("GetProduct after delete err = %v", err)
	}

	stored, err := inv.GetTransaction(txn.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if stored.Items[0].ProductId != "p1" || stored.Items[0].ProductName != "Widget p1" {
		t.Fatalf("history line = %+v", stored.Items[0])
	}
	snap := inv.Snapshot()
	if got := snap.ProductName("p1"); got != models.UnknownProductName {
		t.Fatalf("ProductName of deleted = %q", got)
	}
}

func TestGetProductsReturnsCopies(t *testing.T) {
	inv := newTestInventory(t)
	mustAddProduct(t, inv, boxProduct("p1"))

	products := inv.GetProducts()
	products[0].Stock = d("0")
	products[0].AlternateUnits[0].Factor = d("99")

	p, _ := inv.GetProduct("p1")
	if !p.Stock.Equal(d("100")) || !p.AlternateUnits[0].Factor.Equal(d("10")) {
		t.Fatalf("catalog mutated through a read copy: %+v", p)
	}
}
