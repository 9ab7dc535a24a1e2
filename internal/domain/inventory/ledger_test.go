package inventory

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/eternalbranch/clinic/internal/platform/apperr"
)

func newTestLedger() *Ledger {
	return NewLedger(zerolog.Nop())
}

func mustAdd(t *testing.T, l *Ledger, in AddInput) *Item {
	t.Helper()
	item, err := l.Add(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return item
}

func vitamins(current, min, max int) AddInput {
	return AddInput{
		Name:         "Vitamin D3 1000IU",
		Category:     "Vitamins",
		CurrentStock: current,
		MinStock:     min,
		MaxStock:     max,
		UnitPrice:    decimal.RequireFromString("12.50"),
	}
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		current, min int
		want         Status
	}{
		{0, 10, StatusOutOfStock},
		{5, 10, StatusLowStock},
		{10, 10, StatusLowStock},
		{11, 10, StatusInStock},
		{1, 0, StatusInStock},
	}
	for _, tt := range tests {
		if got := DeriveStatus(tt.current, tt.min); got != tt.want {
			t.Errorf("DeriveStatus(%d, %d) = %s, want %s", tt.current, tt.min, got, tt.want)
		}
	}
}

func TestStockLevel(t *testing.T) {
	item := &Item{CurrentStock: 150, MaxStock: 500}
	if got := item.StockLevel(); got != 30 {
		t.Errorf("expected 30, got %d", got)
	}
	item.CurrentStock = 900
	if got := item.StockLevel(); got != 100 {
		t.Errorf("expected cap at 100, got %d", got)
	}
	if got := (&Item{CurrentStock: 5}).StockLevel(); got != 0 {
		t.Errorf("expected 0 without max, got %d", got)
	}
}

func TestAdd_SequentialIDsAndDerivedStatus(t *testing.T) {
	l := newTestLedger()
	a := mustAdd(t, l, vitamins(150, 50, 500))
	in := vitamins(25, 30, 200)
	in.Status = StatusInStock
	b := mustAdd(t, l, in)

	if a.ID != "1" || b.ID != "2" {
		t.Errorf("expected ids 1 and 2, got %s and %s", a.ID, b.ID)
	}
	if a.Status != StatusInStock {
		t.Errorf("expected in-stock, got %s", a.Status)
	}
	if b.Status != StatusLowStock {
		t.Errorf("expected supplied status to be ignored, got %s", b.Status)
	}
	if a.LastRestocked.IsZero() {
		t.Error("expected lastRestocked to be set")
	}
}

func TestAdd_Discontinued(t *testing.T) {
	l := newTestLedger()
	in := vitamins(100, 10, 200)
	in.Status = StatusDiscontinued
	if item := mustAdd(t, l, in); item.Status != StatusDiscontinued {
		t.Errorf("expected discontinued, got %s", item.Status)
	}
}

func TestAdd_Validation(t *testing.T) {
	l := newTestLedger()
	_, err := l.Add(context.Background(), AddInput{
		Category:     "Herbs",
		CurrentStock: -1,
		MinStock:     50,
		MaxStock:     10,
		UnitPrice:    decimal.NewFromInt(-3),
	})
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Fields) != 5 {
		t.Errorf("expected 5 field errors, got %+v", verr.Fields)
	}
}

func TestAdd_CategoryIsCaseInsensitive(t *testing.T) {
	l := newTestLedger()
	in := vitamins(10, 1, 20)
	in.Category = "omega-3"
	if item := mustAdd(t, l, in); item.Category != "Omega-3" {
		t.Errorf("expected stored spelling Omega-3, got %s", item.Category)
	}
}

func TestRestock_LowToInStock(t *testing.T) {
	l := newTestLedger()
	item := mustAdd(t, l, vitamins(25, 30, 200))
	if item.Status != StatusLowStock {
		t.Fatalf("expected low-stock, got %s", item.Status)
	}
	l.now = func() time.Time { return item.LastRestocked.Add(time.Hour) }

	got, err := l.Restock(context.Background(), item.ID, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CurrentStock != 35 || got.Status != StatusInStock {
		t.Errorf("expected 35 in-stock, got %d %s", got.CurrentStock, got.Status)
	}
	if !got.LastRestocked.After(item.LastRestocked) {
		t.Error("expected lastRestocked to move forward")
	}
}

func TestRestock_OutToInStock(t *testing.T) {
	l := newTestLedger()
	item := mustAdd(t, l, vitamins(0, 10, 100))
	if item.Status != StatusOutOfStock {
		t.Fatalf("expected out-of-stock, got %s", item.Status)
	}
	got, _ := l.Restock(context.Background(), item.ID, 50)
	if got.Status != StatusInStock {
		t.Errorf("expected in-stock, got %s", got.Status)
	}
}

func TestRestock_Errors(t *testing.T) {
	l := newTestLedger()
	item := mustAdd(t, l, vitamins(5, 1, 10))
	if _, err := l.Restock(context.Background(), item.ID, 0); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := l.Restock(context.Background(), "99", 5); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRestock_Overflow(t *testing.T) {
	l := newTestLedger()
	item := mustAdd(t, l, vitamins(10, 5, 100))

	if _, err := l.Restock(context.Background(), item.ID, math.MaxInt); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	got, err := l.Get(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CurrentStock != 10 || got.Status != StatusInStock {
		t.Errorf("expected stock untouched at 10 in-stock, got %d %s", got.CurrentStock, got.Status)
	}
	if moves := l.Movements(context.Background(), item.ID); len(moves) != 1 {
		t.Errorf("expected only the add movement, got %d", len(moves))
	}
}

func TestDispense_ExactStock(t *testing.T) {
	l := newTestLedger()
	item := mustAdd(t, l, vitamins(40, 10, 100))

	got, warning, err := l.Dispense(context.Background(), item.ID, 40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if warning != nil {
		t.Errorf("expected no warning, got %+v", warning)
	}
	if got.CurrentStock != 0 || got.Status != StatusOutOfStock {
		t.Errorf("expected 0 out-of-stock, got %d %s", got.CurrentStock, got.Status)
	}
}

func TestDispense_FloorsAtZeroWithWarning(t *testing.T) {
	l := newTestLedger()
	item := mustAdd(t, l, vitamins(40, 10, 100))

	got, warning, err := l.Dispense(context.Background(), item.ID, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if warning == nil || warning.Code != "insufficient_stock" {
		t.Errorf("expected insufficient_stock warning, got %+v", warning)
	}
	if got.CurrentStock != 0 || got.Status != StatusOutOfStock {
		t.Errorf("expected 0 out-of-stock, got %d %s", got.CurrentStock, got.Status)
	}
}

func TestDispense_ToLowStock(t *testing.T) {
	l := newTestLedger()
	item := mustAdd(t, l, vitamins(40, 10, 100))
	got, _, _ := l.Dispense(context.Background(), item.ID, 30)
	if got.CurrentStock != 10 || got.Status != StatusLowStock {
		t.Errorf("expected 10 low-stock, got %d %s", got.CurrentStock, got.Status)
	}
}

func TestDispense_Errors(t *testing.T) {
	l := newTestLedger()
	item := mustAdd(t, l, vitamins(40, 10, 100))
	if _, _, err := l.Dispense(context.Background(), item.ID, -1); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, _, err := l.Dispense(context.Background(), "99", 1); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDiscontinue_IsSticky(t *testing.T) {
	l := newTestLedger()
	ctx := context.Background()
	item := mustAdd(t, l, vitamins(40, 10, 100))

	if _, err := l.Discontinue(ctx, item.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := l.Restock(ctx, item.ID, 5)
	if got.Status != StatusDiscontinued {
		t.Errorf("expected discontinued after restock, got %s", got.Status)
	}
	got, _, _ = l.Dispense(ctx, item.ID, 45)
	if got.Status != StatusDiscontinued {
		t.Errorf("expected discontinued after dispense, got %s", got.Status)
	}

	got, _ = l.Reinstate(ctx, item.ID)
	if got.Status != StatusOutOfStock {
		t.Errorf("expected reinstated status derived from stock, got %s", got.Status)
	}
}

func TestRemove(t *testing.T) {
	l := newTestLedger()
	ctx := context.Background()
	a := mustAdd(t, l, vitamins(40, 10, 100))
	b := mustAdd(t, l, vitamins(40, 10, 100))

	if err := l.Remove(ctx, a.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := l.Remove(ctx, a.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second remove, got %v", err)
	}
	items := l.Filter(ctx, Filter{})
	if len(items) != 1 || items[0].ID != b.ID {
		t.Errorf("expected only item %s to remain", b.ID)
	}

	c := mustAdd(t, l, vitamins(1, 0, 10))
	if c.ID != "3" {
		t.Errorf("expected ids not to be reused, got %s", c.ID)
	}
}

func TestFilter(t *testing.T) {
	l := newTestLedger()
	ctx := context.Background()
	mustAdd(t, l, AddInput{Name: "Vitamin D3 1000IU", Category: "Vitamins", CurrentStock: 150, MinStock: 50, MaxStock: 500})
	mustAdd(t, l, AddInput{Name: "Omega-3 Fish Oil", Category: "Omega-3", CurrentStock: 25, MinStock: 30, MaxStock: 200})
	mustAdd(t, l, AddInput{Name: "Whey Protein", Category: "Protein", CurrentStock: 0, MinStock: 20, MaxStock: 100})
	mustAdd(t, l, AddInput{Name: "Vitamin C 500mg", Category: "Vitamins", CurrentStock: 75, MinStock: 25, MaxStock: 300})

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"everything", Filter{}, 4},
		{"all keyword", Filter{Category: "all", Status: "all"}, 4},
		{"category", Filter{Category: "Vitamins"}, 2},
		{"status", Filter{Status: "low-stock"}, 1},
		{"search", Filter{SearchTerm: "VITAMIN"}, 2},
		{"anded", Filter{Category: "Vitamins", SearchTerm: "c 500"}, 1},
		{"no match", Filter{Category: "Minerals"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.Filter(ctx, tt.filter); len(got) != tt.want {
				t.Errorf("expected %d items, got %d", tt.want, len(got))
			}
		})
	}
}

func TestCategories(t *testing.T) {
	l := newTestLedger()
	ctx := context.Background()

	if got := l.Categories(ctx); len(got) != 4 {
		t.Fatalf("expected 4 default categories, got %v", got)
	}
	if err := l.AddCategory(ctx, "Herbs"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := l.AddCategory(ctx, "herbs"); !errors.Is(err, ErrDuplicateCategory) {
		t.Errorf("expected ErrDuplicateCategory, got %v", err)
	}
	if err := l.AddCategory(ctx, " "); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}

	got := l.Categories(ctx)
	got[0] = "mutated"
	if l.Categories(ctx)[0] != "Vitamins" {
		t.Error("expected categories to be returned as a copy")
	}
}

func TestMovements(t *testing.T) {
	l := newTestLedger()
	ctx := context.Background()
	item := mustAdd(t, l, vitamins(40, 10, 100))
	other := mustAdd(t, l, vitamins(5, 1, 10))
	l.Restock(ctx, item.ID, 10)
	l.Dispense(ctx, item.ID, 60)

	moves := l.Movements(ctx, item.ID)
	if len(moves) != 3 {
		t.Fatalf("expected 3 movements, got %d", len(moves))
	}
	last := moves[2]
	if last.Kind != MovementDispense || last.Before != 50 || last.After != 0 || last.Quantity != 60 {
		t.Errorf("unexpected dispense movement %+v", last)
	}
	if got := l.Movements(ctx, other.ID); len(got) != 1 || got[0].Kind != MovementAdd {
		t.Errorf("expected a single add movement, got %+v", got)
	}
	if got := l.Movements(ctx, ""); len(got) != 4 {
		t.Errorf("expected 4 movements overall, got %d", len(got))
	}
}
