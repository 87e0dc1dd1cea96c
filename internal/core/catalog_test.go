package core

import (
	"errors"
	"testing"
)

func productSheet(rows ...[]string) RecordSet {
	return RecordSet{
		Header: []string{FieldProductName, FieldProductSKU, FieldProductQuantity},
		Rows:   rows,
	}
}

func TestCatalog_Load(t *testing.T) {
	c := NewCatalog()
	err := c.Load(productSheet(
		[]string{"Widget", "A", "1"},
		[]string{"Case of six", " CASE6 ", "6"},
		[]string{"Broken qty", "B", "many"},
		[]string{"Zero qty", "Z", "0"},
		[]string{"No sku", "", "3"},
	))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if c.Len() != 4 {
		t.Errorf("Len() = %d, want 4", c.Len())
	}

	tests := []struct {
		sku      string
		wantName string
		wantQty  int
	}{
		{"A", "Widget", 1},
		{"CASE6", "Case of six", 6},
		{" CASE6", "Case of six", 6},
		{"B", "Broken qty", 1},
		{"Z", "Zero qty", 1},
	}
	for _, tt := range tests {
		p, ok := c.Lookup(tt.sku)
		if !ok {
			t.Errorf("Lookup(%q) not found", tt.sku)
			continue
		}
		if p.Name != tt.wantName || p.PhysicalQuantity != tt.wantQty {
			t.Errorf("Lookup(%q) = {%q, %d}, want {%q, %d}", tt.sku, p.Name, p.PhysicalQuantity, tt.wantName, tt.wantQty)
		}
	}
}

func TestCatalog_DuplicateSKUFirstWins(t *testing.T) {
	c := NewCatalog()
	if err := c.Load(productSheet(
		[]string{"Name1", "S", "1"},
		[]string{"Name2", "S", "4"},
	)); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	p, ok := c.Lookup("S")
	if !ok {
		t.Fatal("Lookup(S) not found")
	}
	if p.Name != "Name1" {
		t.Errorf("Lookup(S).Name = %q, want %q", p.Name, "Name1")
	}
	if p.PhysicalQuantity != 1 {
		t.Errorf("Lookup(S).PhysicalQuantity = %d, want 1", p.PhysicalQuantity)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCatalog_PlaceholderSKUsSkipped(t *testing.T) {
	c := NewCatalog()
	if err := c.Load(productSheet(
		[]string{"Widget", "A", "1"},
		[]string{"Lost row", "nan", "1"},
		[]string{"Lost row", "None", "1"},
		[]string{"Lost row", "NULL", "1"},
	)); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	for _, sku := range []string{"nan", "None", "NULL"} {
		if c.Contains(sku) {
			t.Errorf("Contains(%q) = true, want false", sku)
		}
	}
}

func TestCatalog_Fallbacks(t *testing.T) {
	c := NewCatalog()
	if err := c.Load(productSheet([]string{"Widget", "A", "3"})); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := c.NameOrFallback("A", "x"); got != "Widget" {
		t.Errorf("NameOrFallback(A) = %q, want Widget", got)
	}
	if got := c.NameOrFallback("NOPE", "NOPE"); got != "NOPE" {
		t.Errorf("NameOrFallback(NOPE) = %q, want NOPE", got)
	}
	if got := c.QuantityOrFallback("A", 1); got != 3 {
		t.Errorf("QuantityOrFallback(A) = %d, want 3", got)
	}
	if got := c.QuantityOrFallback("NOPE", 1); got != 1 {
		t.Errorf("QuantityOrFallback(NOPE) = %d, want 1", got)
	}
	if !c.Contains("A") || c.Contains("NOPE") {
		t.Error("Contains() mismatch")
	}
}

func TestCatalog_LoadMissingColumnsKeepsContents(t *testing.T) {
	c := NewCatalog()
	if err := c.Load(productSheet([]string{"Widget", "A", "1"})); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	err := c.Load(RecordSet{Header: []string{"SKU"}, Rows: [][]string{{"B"}}})
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Load() error = %v, want *SchemaError", err)
	}
	if len(schemaErr.Missing) != 2 || schemaErr.Missing[0] != FieldProductName || schemaErr.Missing[1] != FieldProductQuantity {
		t.Errorf("Missing = %v, want [%s %s]", schemaErr.Missing, FieldProductName, FieldProductQuantity)
	}
	if !c.Contains("A") {
		t.Error("failed Load() should keep previous contents")
	}
}

func TestCatalog_LoadReplacesContents(t *testing.T) {
	c := NewCatalog()
	_ = c.Load(productSheet([]string{"Widget", "A", "1"}))
	_ = c.Load(productSheet([]string{"Gadget", "B", "1"}))

	if c.Contains("A") {
		t.Error("second Load() should replace the first")
	}
	if got := c.SKUs(); len(got) != 1 || got[0] != "B" {
		t.Errorf("SKUs() = %v, want [B]", got)
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
}
