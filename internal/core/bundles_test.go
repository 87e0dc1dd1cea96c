package core

import (
	"errors"
	"testing"
)

func bundleSheet(rows ...[]string) RecordSet {
	return RecordSet{
		Header: []string{FieldBundleName, FieldBundleSKU, FieldComponentSKU, FieldComponentQuantity},
		Rows:   rows,
	}
}

func TestBundleCatalog_Load(t *testing.T) {
	b := NewBundleCatalog()
	err := b.Load(bundleSheet(
		[]string{"Gift box", "BOX", "A", "2"},
		[]string{"Starter", "START", "C", "1"},
		[]string{"Gift box", "BOX", "B", ""},
		[]string{"Gift box", "BOX", "", "5"},
		[]string{"Gift box", "BOX", "nan", "5"},
		[]string{"Gift box", "BOX", "D", "x"},
	))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !b.IsBundle("BOX") || !b.IsBundle("START") {
		t.Fatal("IsBundle() = false for loaded bundles")
	}
	if b.IsBundle("A") {
		t.Error("IsBundle(A) = true for a component")
	}

	got, ok := b.Components("BOX")
	if !ok {
		t.Fatal("Components(BOX) not found")
	}
	want := []BundleComponent{{"A", 2}, {"B", 1}, {"D", 1}}
	if len(got) != len(want) {
		t.Fatalf("Components(BOX) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Components(BOX)[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if n := b.ComponentCount("BOX"); n != 3 {
		t.Errorf("ComponentCount(BOX) = %d, want 3", n)
	}
	if n := b.ComponentCount("NOPE"); n != 0 {
		t.Errorf("ComponentCount(NOPE) = %d, want 0", n)
	}
	if got := b.SKUs(); len(got) != 2 || got[0] != "BOX" || got[1] != "START" {
		t.Errorf("SKUs() = %v, want [BOX START]", got)
	}
	if name := b.BundleName("BOX"); name != "Gift box" {
		t.Errorf("BundleName(BOX) = %q, want %q", name, "Gift box")
	}
}

func TestBundleCatalog_ComponentsReturnsCopy(t *testing.T) {
	b := NewBundleCatalog()
	_ = b.Load(bundleSheet([]string{"Box", "BOX", "A", "2"}))

	got, _ := b.Components("BOX")
	got[0].Quantity = 99

	again, _ := b.Components("BOX")
	if again[0].Quantity != 2 {
		t.Errorf("mutating Components() result changed the catalog: quantity = %d", again[0].Quantity)
	}
}

func TestBundleCatalog_EmptyBundleNotStored(t *testing.T) {
	b := NewBundleCatalog()
	err := b.Load(bundleSheet(
		[]string{"Ghost", "GHOST", "", "1"},
		[]string{"Ghost", "GHOST", "none", "1"},
		[]string{"Box", "BOX", "A", "1"},
	))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if b.IsBundle("GHOST") {
		t.Error("IsBundle(GHOST) = true, want false for a bundle without components")
	}
	if _, ok := b.Components("GHOST"); ok {
		t.Error("Components(GHOST) found, want absent")
	}
	if !b.IsEmptyBundle("GHOST") {
		t.Error("IsEmptyBundle(GHOST) = false, want true")
	}
	if got := b.EmptyBundles(); len(got) != 1 || got[0] != "GHOST" {
		t.Errorf("EmptyBundles() = %v, want [GHOST]", got)
	}
	if b.Len() != 1 {
		t.Errorf("Len() = %d, want 1", b.Len())
	}
}

func TestBundleCatalog_QuantityColumnOptional(t *testing.T) {
	b := NewBundleCatalog()
	err := b.Load(RecordSet{
		Header: []string{FieldBundleName, FieldBundleSKU, FieldComponentSKU},
		Rows: [][]string{
			{"Box", "BOX", "A"},
			{"Box", "BOX", "B"},
		},
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	got, _ := b.Components("BOX")
	for _, c := range got {
		if c.Quantity != 1 {
			t.Errorf("component %s quantity = %d, want 1", c.SKU, c.Quantity)
		}
	}
}

func TestBundleCatalog_MissingColumns(t *testing.T) {
	b := NewBundleCatalog()
	err := b.Load(RecordSet{Header: []string{FieldBundleSKU}})

	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Load() error = %v, want *SchemaError", err)
	}
	if schemaErr.Sheet != SheetBundles {
		t.Errorf("Sheet = %q, want %q", schemaErr.Sheet, SheetBundles)
	}
	if len(schemaErr.Missing) != 2 {
		t.Errorf("Missing = %v, want 2 columns", schemaErr.Missing)
	}
}
