package workflow

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/mmdatafocus/stock_ledger/models"
	"github.com/mmdatafocus/stock_ledger/utils"
)

func TestBulkOutwardBoxes(t *testing.T) {
	inv := newWidgetInventory(t)
	rec := usePublisher(t)
	ctx := utils.SetCorrelationIdInContext(context.Background(), "corr-1")

	txn, err := BulkOutward(ctx, inv, entry(EntryLine{ProductId: "w1", Quantity: d("5"), Unit: "Box"}))
	if err != nil {
		t.Fatalf("BulkOutward: %v", err)
	}
	if !txn.Items[0].FinalQuantity.Equal(d("50")) {
		t.Fatalf("FinalQuantity = %s, want 50", txn.Items[0].FinalQuantity)
	}
	if got := stockOf(t, inv, "w1"); !got.Equal(d("50")) {
		t.Fatalf("stock = %s, want 50", got)
	}
	// 5 × 10 × 3 (selling price per Pcs)
	if !txn.TotalAmount.Equal(d("150")) || !txn.Items[0].Price.Equal(d("3")) {
		t.Fatalf("total = %s price = %s", txn.TotalAmount, txn.Items[0].Price)
	}
	if txn.Date != "2024-06-15" || txn.DocumentDate != "2024-06-14" || txn.DocumentType != models.DocumentTypeInvoice {
		t.Fatalf("dates/doc type = %s %s %s", txn.Date, txn.DocumentDate, txn.DocumentType)
	}
	if len(rec.events) != 1 || rec.events[0].Kind != EventStockMoved || rec.events[0].CorrelationId != "corr-1" {
		t.Fatalf("events = %+v", rec.events)
	}
}

func TestBulkOutwardRejectsInsufficientStock(t *testing.T) {
	inv := newWidgetInventory(t)
	rec := usePublisher(t)

	_, err := BulkOutward(context.Background(), inv, entry(EntryLine{ProductId: "w1", Quantity: d("20"), Unit: "Box"}))
	if !errors.Is(err, models.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
	var stockErr *models.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("err = %T, want *InsufficientStockError", err)
	}
	if stockErr.ProductId != "w1" || !stockErr.Required.Equal(d("200")) || !stockErr.Available.Equal(d("100")) || stockErr.BaseUnit != "Pcs" {
		t.Fatalf("stockErr = %+v", stockErr)
	}
	if got := stockOf(t, inv, "w1"); !got.Equal(d("100")) {
		t.Fatalf("stock = %s, want 100", got)
	}
	if len(inv.GetTransactions()) != 0 || len(rec.events) != 0 {
		t.Fatalf("rejected batch left a trace")
	}
}

func TestBulkOutwardSumsLinesPerProduct(t *testing.T) {
	inv := newWidgetInventory(t)

	_, err := BulkOutward(context.Background(), inv, entry(
		EntryLine{ProductId: "w1", Quantity: d("6"), Unit: "Box"},
		EntryLine{ProductId: "w1", Quantity: d("50")},
	))
	if !errors.Is(err, models.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	if _, err := BulkOutward(context.Background(), inv, entry(
		EntryLine{ProductId: "w1", Quantity: d("5"), Unit: "Box"},
		EntryLine{ProductId: "w1", Quantity: d("50")},
	)); err != nil {
		t.Fatalf("exact-stock batch: %v", err)
	}
	if got := stockOf(t, inv, "w1"); !got.IsZero() {
		t.Fatalf("stock = %s, want 0", got)
	}
}

func TestBulkInward(t *testing.T) {
	inv := newWidgetInventory(t)

	input := entry(
		EntryLine{ProductId: "w1", Quantity: d("2"), Unit: "Box"},
		EntryLine{ProductId: "", Quantity: d("9")},
		EntryLine{ProductId: "w1", Quantity: d("5"), Price: dp("1.5")},
	)
	input.Date = "2024-06-10"
	input.DocumentType = models.DocumentTypeChallan
	txn, err := BulkInward(context.Background(), inv, input)
	if err != nil {
		t.Fatalf("BulkInward: %v", err)
	}
	if len(txn.Items) != 2 || txn.Date != "2024-06-10" || txn.DocumentType != models.DocumentTypeChallan {
		t.Fatalf("txn = %+v", txn)
	}
	// 2×10×2 + 5×1×1.5
	if !txn.TotalAmount.Equal(d("47.5")) {
		t.Fatalf("total = %s, want 47.5", txn.TotalAmount)
	}
	if got := stockOf(t, inv, "w1"); !got.Equal(d("125")) {
		t.Fatalf("stock = %s, want 125", got)
	}
}

func TestStockEntryValidation(t *testing.T) {
	inv := newWidgetInventory(t)
	line := EntryLine{ProductId: "w1", Quantity: d("1")}

	noDocDate := entry(line)
	noDocDate.DocumentDate = ""
	noParty := entry(line)
	noParty.PartyName = ""
	badDate := entry(line)
	badDate.Date = "15/06/2024"
	badDocType := entry(line)
	badDocType.DocumentType = "RECEIPT"

	cases := []struct {
		input *StockEntryInput
		want  error
	}{
		{noDocDate, models.ErrMissingDocumentDate},
		{noParty, models.ErrInvalidInput},
		{badDate, models.ErrInvalidInput},
		{badDocType, models.ErrInvalidInput},
		{entry(EntryLine{ProductId: "w1", Quantity: d("0")}), models.ErrEmptyItemSet},
		{entry(EntryLine{ProductId: "ghost", Quantity: d("1")}), models.ErrUnknownProduct},
		{entry(EntryLine{ProductId: "w1", Quantity: d("1"), Unit: "Crate"}), models.ErrUnknownUnit},
	}
	for i, tc := range cases {
		if _, err := BulkInward(context.Background(), inv, tc.input); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: err = %v, want %v", i, err, tc.want)
		}
	}
	if got := stockOf(t, inv, "w1"); !got.Equal(d("100")) {
		t.Fatalf("stock = %s, want 100", got)
	}
}

func TestEditOutwardChecksStockAfterRelease(t *testing.T) {
	inv := newWidgetInventory(t)
	rec := usePublisher(t)

	txn, err := BulkOutward(context.Background(), inv, entry(EntryLine{ProductId: "w1", Quantity: d("8"), Unit: "Box"}))
	if err != nil {
		t.Fatalf("BulkOutward: %v", err)
	}

	// 10 Box only fits once the original 8 Box are released
	edited, err := EditTransaction(context.Background(), inv, txn.ID, entry(EntryLine{ProductId: "w1", Quantity: d("10"), Unit: "Box"}))
	if err != nil {
		t.Fatalf("EditTransaction: %v", err)
	}
	if edited.ID != txn.ID || edited.Type != models.TransactionTypeOut || edited.Date != txn.Date {
		t.Fatalf("edited = %+v", edited)
	}
	if got := stockOf(t, inv, "w1"); !got.IsZero() {
		t.Fatalf("stock = %s, want 0", got)
	}

	_, err = EditTransaction(context.Background(), inv, txn.ID, entry(EntryLine{ProductId: "w1", Quantity: d("11"), Unit: "Box"}))
	if !errors.Is(err, models.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
	if got := stockOf(t, inv, "w1"); !got.IsZero() {
		t.Fatalf("stock after rejected edit = %s, want 0", got)
	}
	stored, _ := inv.GetTransaction(txn.ID)
	if !stored.Items[0].Quantity.Equal(d("10")) {
		t.Fatalf("stored quantity = %s, want 10", stored.Items[0].Quantity)
	}

	if _, err := RemoveTransaction(context.Background(), inv, txn.ID); err != nil {
		t.Fatalf("RemoveTransaction: %v", err)
	}
	if got := stockOf(t, inv, "w1"); !got.Equal(d("100")) {
		t.Fatalf("stock after remove = %s, want 100", got)
	}
	want := []EventKind{EventStockMoved, EventTransactionEdited, EventTransactionRemoved}
	if got := rec.kinds(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestEditInwardKeepsPosition(t *testing.T) {
	inv := newWidgetInventory(t)
	first, _ := BulkInward(context.Background(), inv, entry(EntryLine{ProductId: "w1", Quantity: d("1"), Unit: "Box"}))
	second, _ := BulkInward(context.Background(), inv, entry(EntryLine{ProductId: "w1", Quantity: d("1")}))

	for _, qty := range []string{"3", "7", "2"} {
		if _, err := EditTransaction(context.Background(), inv, first.ID, entry(EntryLine{ProductId: "w1", Quantity: d(qty), Unit: "Box"})); err != nil {
			t.Fatalf("EditTransaction: %v", err)
		}
	}
	if got := stockOf(t, inv, "w1"); !got.Equal(d("121")) {
		t.Fatalf("stock = %s, want 121", got)
	}
	history := inv.GetTransactions()
	if history[0].ID != second.ID || history[1].ID != first.ID {
		t.Fatalf("history order changed")
	}

	if _, err := EditTransaction(context.Background(), inv, "missing", entry(EntryLine{ProductId: "w1", Quantity: d("1")})); !errors.Is(err, models.ErrUnknownTransaction) {
		t.Fatalf("err = %v, want ErrUnknownTransaction", err)
	}
	if _, err := RemoveTransaction(context.Background(), inv, "missing"); !errors.Is(err, models.ErrUnknownTransaction) {
		t.Fatalf("err = %v, want ErrUnknownTransaction", err)
	}
}

func setUnitsAndPrice(t *testing.T, inv *models.Inventory, units []models.AlternateUnit, purchase string) {
	t.Helper()
	price := d(purchase)
	err := inv.Update(context.Background(), func(tx *models.InventoryTx) error {
		_, err := tx.UpdateProduct("w1", &models.ProductPatch{AlternateUnits: &units, PurchasePrice: &price})
		return err
	})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
}

func TestEditKeepsCommittedFactorAndPrice(t *testing.T) {
	inv := newWidgetInventory(t)
	txn, err := BulkInward(context.Background(), inv, entry(EntryLine{ProductId: "w1", Quantity: d("2"), Unit: "Box"}))
	if err != nil {
		t.Fatalf("BulkInward: %v", err)
	}

	setUnitsAndPrice(t, inv, []models.AlternateUnit{{Name: "Box", Factor: d("12")}}, "5")

	input := entry(EntryLine{ProductId: "w1", Quantity: d("2"), Unit: "Box"})
	input.PartyName = "Other Supplier"
	edited, err := EditTransaction(context.Background(), inv, txn.ID, input)
	if err != nil {
		t.Fatalf("EditTransaction: %v", err)
	}
	if !edited.Items[0].ConversionFactor.Equal(d("10")) || !edited.Items[0].Price.Equal(d("2")) {
		t.Fatalf("factor = %s price = %s, want 10 and 2", edited.Items[0].ConversionFactor, edited.Items[0].Price)
	}
	if got := stockOf(t, inv, "w1"); !got.Equal(d("120")) {
		t.Fatalf("stock = %s, want 120", got)
	}

	// the unit no longer exists on the product, the committed line still edits
	setUnitsAndPrice(t, inv, nil, "5")
	edited, err = EditTransaction(context.Background(), inv, txn.ID, entry(EntryLine{ProductId: "w1", Quantity: d("3"), Unit: "Box"}))
	if err != nil {
		t.Fatalf("EditTransaction after unit removal: %v", err)
	}
	if !edited.Items[0].FinalQuantity.Equal(d("30")) {
		t.Fatalf("FinalQuantity = %s, want 30", edited.Items[0].FinalQuantity)
	}
	if got := stockOf(t, inv, "w1"); !got.Equal(d("130")) {
		t.Fatalf("stock = %s, want 130", got)
	}

	// changing the unit resolves against the catalog
	edited, err = EditTransaction(context.Background(), inv, txn.ID, entry(EntryLine{ProductId: "w1", Quantity: d("3"), Unit: "Pcs"}))
	if err != nil {
		t.Fatalf("EditTransaction with new unit: %v", err)
	}
	if !edited.Items[0].ConversionFactor.Equal(d("1")) || !edited.Items[0].Price.Equal(d("5")) {
		t.Fatalf("factor = %s price = %s, want 1 and 5", edited.Items[0].ConversionFactor, edited.Items[0].Price)
	}
	if got := stockOf(t, inv, "w1"); !got.Equal(d("103")) {
		t.Fatalf("stock = %s, want 103", got)
	}
}
