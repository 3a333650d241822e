package reconcile

import (
	"testing"

	"storefront/internal/model"
)

var testCatalog = []model.Product{
	{ID: "p1", Name: "Tan Leatherette Weekender Duffle", Category: "Fashion", Cost: 150, Rating: 4},
	{ID: "p2", Name: "The Minimalist Slim Leather Watch", Category: "Electronics", Cost: 60, Rating: 5},
	{ID: "p3", Name: "Atomberg 1200mm BLDC ceiling fan", Category: "Home & Kitchen", Cost: 80, Rating: 3},
}

func TestMerge_PreservesCartOrder(t *testing.T) {
	lines := []model.CartLine{
		{ProductID: "p3", Quantity: 1},
		{ProductID: "p1", Quantity: 2},
	}

	result := Merge(lines, testCatalog)

	if len(result.Items) != 2 {
		t.Fatalf("Items = %d, want 2", len(result.Items))
	}
	if result.Items[0].ID != "p3" || result.Items[1].ID != "p1" {
		t.Errorf("order = [%s %s], want [p3 p1]", result.Items[0].ID, result.Items[1].ID)
	}
	if result.Items[1].Quantity != 2 {
		t.Errorf("Quantity = %d, want 2", result.Items[1].Quantity)
	}
	if result.Items[0].Name != "Atomberg 1200mm BLDC ceiling fan" {
		t.Errorf("Name = %q, want catalog name", result.Items[0].Name)
	}
	if !result.Complete() {
		t.Errorf("Complete() = false, Missing = %v", result.Missing)
	}
}

func TestMerge_DropsAndReportsUnknownProducts(t *testing.T) {
	lines := []model.CartLine{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "gone", Quantity: 4},
		{ProductID: "p2", Quantity: 1},
	}

	result := Merge(lines, testCatalog)

	if len(result.Items) != 2 {
		t.Errorf("Items = %d, want 2", len(result.Items))
	}
	if len(result.Missing) != 1 || result.Missing[0] != "gone" {
		t.Errorf("Missing = %v, want [gone]", result.Missing)
	}
	if result.Complete() {
		t.Error("Complete() = true, want false")
	}
}

func TestMerge_LengthMatchesJoinableLines(t *testing.T) {
	tests := []struct {
		name    string
		lines   []model.CartLine
		catalog []model.Product
		want    int
	}{
		{"empty cart", nil, testCatalog, 0},
		{"empty catalog", []model.CartLine{{ProductID: "p1", Quantity: 1}}, nil, 0},
		{"disjoint", []model.CartLine{{ProductID: "x", Quantity: 1}, {ProductID: "y", Quantity: 1}}, testCatalog, 0},
		{"subset", []model.CartLine{{ProductID: "p1", Quantity: 1}}, testCatalog, 1},
		{"overlap", []model.CartLine{{ProductID: "p1", Quantity: 1}, {ProductID: "z", Quantity: 2}, {ProductID: "p2", Quantity: 3}}, testCatalog, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Merge(tt.lines, tt.catalog)
			if len(result.Items) != tt.want {
				t.Errorf("Items = %d, want %d", len(result.Items), tt.want)
			}
			if len(result.Items) > len(tt.lines) {
				t.Errorf("Items = %d exceeds lines = %d", len(result.Items), len(tt.lines))
			}
			if len(result.Items)+len(result.Missing) != len(tt.lines) {
				t.Errorf("Items+Missing = %d, want %d", len(result.Items)+len(result.Missing), len(tt.lines))
			}
		})
	}
}

func TestTotalValue_OrderIndependent(t *testing.T) {
	lines := []model.CartLine{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 1},
		{ProductID: "p3", Quantity: 3},
	}
	reversedLines := []model.CartLine{lines[2], lines[1], lines[0]}
	reversedCatalog := []model.Product{testCatalog[2], testCatalog[1], testCatalog[0]}

	want := int64(150*2 + 60 + 80*3)
	combos := []struct {
		name    string
		lines   []model.CartLine
		catalog []model.Product
	}{
		{"original", lines, testCatalog},
		{"lines reversed", reversedLines, testCatalog},
		{"catalog reversed", lines, reversedCatalog},
		{"both reversed", reversedLines, reversedCatalog},
	}

	for _, c := range combos {
		t.Run(c.name, func(t *testing.T) {
			if got := TotalValue(Merge(c.lines, c.catalog).Items); got != want {
				t.Errorf("TotalValue() = %d, want %d", got, want)
			}
		})
	}
}

func TestTotalItemCount(t *testing.T) {
	items := Merge([]model.CartLine{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 5},
		{ProductID: "missing", Quantity: 9},
	}, testCatalog).Items

	if got := TotalItemCount(items); got != 7 {
		t.Errorf("TotalItemCount() = %d, want 7", got)
	}
	if got := TotalItemCount(nil); got != 0 {
		t.Errorf("TotalItemCount(nil) = %d, want 0", got)
	}
}

func TestSummarize(t *testing.T) {
	items := Merge([]model.CartLine{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "p2", Quantity: 2},
	}, testCatalog).Items

	got := Summarize(items)
	want := Summary{Products: 3, Subtotal: 270, Shipping: 0, Total: 270}
	if got != want {
		t.Errorf("Summarize() = %+v, want %+v", got, want)
	}
}
