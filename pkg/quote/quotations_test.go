package quote

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openjoinery/joinery/pkg/engine"
	"github.com/openjoinery/joinery/pkg/stores"
)

func quotationTotal(t *testing.T, svc *Service, id string) float64 {
	t.Helper()
	q, err := svc.Quotation(context.Background(), id)
	if err != nil {
		t.Fatalf("Quotation() error = %v", err)
	}
	return q.TotalPrice
}

func TestCreateQuotation(t *testing.T) {
	svc, _ := setupTestService(t, DefaultConfig())
	ctx := context.Background()

	q, err := svc.CreateQuotation(ctx, NewQuotation{})
	if err != nil {
		t.Fatalf("CreateQuotation() error = %v", err)
	}
	if !strings.HasPrefix(q.Reference, "Q-") || len(q.Reference) != 10 {
		t.Errorf("generated reference = %q", q.Reference)
	}
	if q.Status != engine.QuotationDraft {
		t.Errorf("status = %s, want DRAFT", q.Status)
	}
}

func TestAddItemPricesAndTotals(t *testing.T) {
	svc, _ := setupTestService(t, DefaultConfig())
	qid := newQuotation(t, svc)

	kitchen := addItem(t, svc, qid, kitchenBase())
	if kitchen.ComputedPrice != 30000 {
		t.Errorf("kitchen base price = %v, want 30000 (50/mm x 600mm)", kitchen.ComputedPrice)
	}

	v := vanity()
	v.Quantity = 2
	vanityItem := addItem(t, svc, qid, v)
	if vanityItem.ComputedPrice != 16000 {
		t.Errorf("vanity price = %v, want 16000", vanityItem.ComputedPrice)
	}

	wardrobeItem := addItem(t, svc, qid, wardrobe(""))
	// 0.002 x 2100 x 1200
	if wardrobeItem.ComputedPrice != 5040 {
		t.Errorf("wardrobe price = %v, want 5040", wardrobeItem.ComputedPrice)
	}

	if got := quotationTotal(t, svc, qid); got != 51040 {
		t.Errorf("total = %v, want 51040", got)
	}
}

func TestAddItemRequiresProduct(t *testing.T) {
	svc, _ := setupTestService(t, DefaultConfig())
	ctx := context.Background()
	qid := newQuotation(t, svc)

	if _, err := svc.AddItem(ctx, qid, ItemInput{}); err == nil {
		t.Error("expected error without a product")
	}
	if _, err := svc.AddItem(ctx, qid, ItemInput{ProductName: "Bookshelf"}); !stores.IsNotFound(err) {
		t.Errorf("expected not found for unknown product, got %v", err)
	}
	if _, err := svc.AddItem(ctx, "missing", kitchenBase()); !stores.IsNotFound(err) {
		t.Errorf("expected not found for unknown quotation, got %v", err)
	}
}

func TestUpdateAndDeleteItem(t *testing.T) {
	svc, _ := setupTestService(t, DefaultConfig())
	ctx := context.Background()
	qid := newQuotation(t, svc)

	kitchen := addItem(t, svc, qid, kitchenBase())
	addItem(t, svc, qid, vanity())

	qty := 3
	width := 900.0
	updated, err := svc.UpdateItem(ctx, kitchen.ID, ItemUpdate{Quantity: &qty, Width: &width})
	if err != nil {
		t.Fatalf("UpdateItem() error = %v", err)
	}
	// 50 x 900 x 3
	if updated.ComputedPrice != 135000 {
		t.Errorf("updated price = %v, want 135000", updated.ComputedPrice)
	}
	if got := quotationTotal(t, svc, qid); got != 143000 {
		t.Errorf("total = %v, want 143000", got)
	}

	if err := svc.DeleteItem(ctx, kitchen.ID); err != nil {
		t.Fatalf("DeleteItem() error = %v", err)
	}
	if got := quotationTotal(t, svc, qid); got != 8000 {
		t.Errorf("total after delete = %v, want 8000", got)
	}

	items, err := svc.Items(ctx, qid)
	if err != nil {
		t.Fatalf("Items() error = %v", err)
	}
	if len(items) != 1 || items[0].Product.Name != "Vanity" {
		t.Errorf("remaining items = %+v", items)
	}
}

func TestSubmittedQuotationIsFrozen(t *testing.T) {
	svc, _ := setupTestService(t, DefaultConfig())
	ctx := context.Background()
	qid := newQuotation(t, svc)
	item := addItem(t, svc, qid, kitchenBase())

	q, err := svc.Submit(ctx, qid)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if q.Status != engine.QuotationSubmitted {
		t.Errorf("status = %s, want SUBMITTED", q.Status)
	}

	qty := 2
	tests := []struct {
		name string
		op   func() error
	}{
		{"add", func() error { _, err := svc.AddItem(ctx, qid, vanity()); return err }},
		{"update", func() error { _, err := svc.UpdateItem(ctx, item.ID, ItemUpdate{Quantity: &qty}); return err }},
		{"delete", func() error { return svc.DeleteItem(ctx, item.ID) }},
		{"submit again", func() error { _, err := svc.Submit(ctx, qid); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.op(); !errors.Is(err, ErrNotDraft) {
				t.Errorf("expected ErrNotDraft, got %v", err)
			}
		})
	}

	if got := quotationTotal(t, svc, qid); got != 30000 {
		t.Errorf("total changed after submit: %v", got)
	}
}
