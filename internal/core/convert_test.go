package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

// ----------------------------------------------------------------------------
// ParseCount Tests
// ----------------------------------------------------------------------------

func TestParseCount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		fallback int
		want     int
	}{
		{name: "plain integer", input: "3", fallback: 1, want: 3},
		{name: "zero", input: "0", fallback: 1, want: 0},
		{name: "negative", input: "-2", fallback: 1, want: -2},
		{name: "surrounding whitespace", input: "  12 ", fallback: 1, want: 12},
		{name: "integral float from spreadsheet", input: "3.0", fallback: 1, want: 3},
		{name: "excel text formula", input: `="4"`, fallback: 1, want: 4},
		{name: "blank uses fallback", input: "", fallback: 1, want: 1},
		{name: "whitespace uses fallback", input: "   ", fallback: 7, want: 7},
		{name: "fraction uses fallback", input: "2.5", fallback: 1, want: 1},
		{name: "text uses fallback", input: "two", fallback: 1, want: 1},
		{name: "nan uses fallback", input: "nan", fallback: 0, want: 0},
		{name: "mixed uses fallback", input: "3 pcs", fallback: 0, want: 0},
		{name: "integral exponent", input: "3e2", fallback: 1, want: 300},
		{name: "exponent beyond int range uses fallback", input: "1e30", fallback: 1, want: 1},
		{name: "digits beyond int range use fallback", input: "99999999999999999999", fallback: 0, want: 0},
		{name: "negative beyond int range uses fallback", input: "-1e30", fallback: 1, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCount(tt.input, tt.fallback)
			if got != tt.want {
				t.Errorf("ParseCount(%q, %d) = %d, want %d", tt.input, tt.fallback, got, tt.want)
			}
		})
	}
}

func TestParsePositiveCount(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"6", 6},
		{"1", 1},
		{"0", 1},
		{"-3", 1},
		{"", 1},
		{"abc", 1},
		{"12.0", 12},
	}

	for _, tt := range tests {
		if got := ParsePositiveCount(tt.input); got != tt.want {
			t.Errorf("ParsePositiveCount(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

// ----------------------------------------------------------------------------
// ParseMoney Tests
// ----------------------------------------------------------------------------

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantValue string // String representation of expected decimal value
	}{
		{name: "positive integer", input: "30", wantValid: true, wantValue: "30"},
		{name: "decimal number", input: "49.99", wantValid: true, wantValue: "49.99"},
		{name: "leading decimal point", input: ".99", wantValid: true, wantValue: "0.99"},
		{name: "dollar sign", input: "$1,234.56", wantValid: true, wantValue: "1234.56"},
		{name: "euro sign", input: "\u20ac12.50", wantValid: true, wantValue: "12.5"},
		{name: "pound sign", input: "\u00a37", wantValid: true, wantValue: "7"},
		{name: "thousands separator", input: "1,000,000", wantValid: true, wantValue: "1000000"},
		{name: "accounting negative", input: "(123.45)", wantValid: true, wantValue: "-123.45"},
		{name: "accounting negative with currency", input: "($1,234.56)", wantValid: true, wantValue: "-1234.56"},
		{name: "explicit positive sign", input: "+5", wantValid: true, wantValue: "5"},
		{name: "surrounded by whitespace", input: "  12.00  ", wantValid: true, wantValue: "12"},
		{name: "blank is zero", input: "", wantValid: true, wantValue: "0"},
		{name: "whitespace is zero", input: "   ", wantValid: true, wantValue: "0"},
		{name: "alphabetic string", input: "abc", wantValid: false, wantValue: "0"},
		{name: "only currency symbol", input: "$", wantValid: false, wantValue: "0"},
		{name: "multiple decimal points", input: "1.2.3", wantValid: false, wantValue: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, valid := ParseMoney(tt.input)
			if valid != tt.wantValid {
				t.Errorf("ParseMoney(%q) valid = %v, want %v", tt.input, valid, tt.wantValid)
			}
			if got.String() != tt.wantValue {
				t.Errorf("ParseMoney(%q) = %s, want %s", tt.input, got.String(), tt.wantValue)
			}
		})
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   decimal.Decimal
		want string
	}{
		{decimal.Zero, "0"},
		{decimal.RequireFromString("30"), "30"},
		{decimal.RequireFromString("49.90"), "49.9"},
		{decimal.RequireFromString("-5.25"), "-5.25"},
	}

	for _, tt := range tests {
		if got := FormatMoney(tt.in); got != tt.want {
			t.Errorf("FormatMoney(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// ----------------------------------------------------------------------------
// CleanCell Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain sku", "SOAP-01", "SOAP-01"},
		{"empty", "", ""},
		{"order number with padding", "  #1001  ", "#1001"},
		{"excel text formula keeps leading zeros", `="00123"`, "00123"},
		{"excel formula zero", `="0"`, "0"},
		{"bare formula", "=SUM(A1)", "SUM(A1)"},
		{"quoted product name", `"Bath Box"`, "Bath Box"},
		{"quotes around padded value", `" Bath Box "`, "Bath Box"},
		{"excel apostrophe prefix", "'00123", "00123"},
		{"mismatched quotes", `"KIT-START'`, "KIT-START"},
		{"formula inside whitespace", `  ="KIT-START"  `, "KIT-START"},
		{"only quotes", `""`, ""},
		{"only apostrophes", "''", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Header Index Tests
// ----------------------------------------------------------------------------

func TestMakeHeaderIndex(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   map[string]int
	}{
		{
			name:   "products sheet",
			header: []string{"Products_Name", "SKU", "Quantity_Product"},
			want:   map[string]int{"products_name": 0, "sku": 1, "quantity_product": 2},
		},
		{
			name:   "shopify order export",
			header: []string{"Name", "Lineitem quantity", "Lineitem sku"},
			want:   map[string]int{"name": 0, "lineitem quantity": 1, "lineitem sku": 2},
		},
		{
			name:   "mixed case and padding",
			header: []string{" set_sku ", "SKUS_IN_SET", "Set_Quantity"},
			want:   map[string]int{"set_sku": 0, "skus_in_set": 1, "set_quantity": 2},
		},
		{
			name:   "excel formula headers",
			header: []string{`="IF_SKU"`, `"THEN_ADD"`},
			want:   map[string]int{"if_sku": 0, "then_add": 1},
		},
		{
			name:   "empty",
			header: []string{},
			want:   map[string]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := MakeHeaderIndex(tt.header)
			if len(idx) != len(tt.want) {
				t.Errorf("MakeHeaderIndex(%v) has %d keys, want %d", tt.header, len(idx), len(tt.want))
			}
			for key, wantPos := range tt.want {
				if gotPos, ok := idx[key]; !ok || gotPos != wantPos {
					t.Errorf("MakeHeaderIndex(%v)[%q] = %d, %v, want %d", tt.header, key, gotPos, ok, wantPos)
				}
			}
		})
	}
}

func TestMakeHeaderIndex_FirstDuplicateWins(t *testing.T) {
	idx := MakeHeaderIndex([]string{"SKU", "Products_Name", "sku"})

	if gotPos := idx["sku"]; gotPos != 0 {
		t.Errorf("idx[sku] = %d, want 0", gotPos)
	}
}

func TestHeaderIndex_Cell(t *testing.T) {
	idx := MakeHeaderIndex([]string{"SKU", "Products_Name"})

	if got := idx.Cell([]string{" A1 ", "Widget"}, "sku"); got != "A1" {
		t.Errorf("Cell(sku) = %q, want %q", got, "A1")
	}
	if got := idx.Cell([]string{"A1"}, FieldProductName); got != "" {
		t.Errorf("Cell on short row = %q, want empty", got)
	}
	if got := idx.Cell([]string{"A1", "Widget"}, "missing"); got != "" {
		t.Errorf("Cell(missing) = %q, want empty", got)
	}
}

func TestValidateHeaders(t *testing.T) {
	t.Run("all required present", func(t *testing.T) {
		_, err := ValidateHeaders(SheetProducts, []string{"products_name", "SKU", "Quantity_Product"}, ProductFields)
		if err != nil {
			t.Fatalf("ValidateHeaders() error = %v", err)
		}
	})

	t.Run("optional columns may be absent", func(t *testing.T) {
		_, err := ValidateHeaders(SheetBundles, []string{"SET_Name", "SET_SKU", "SKUs_in_SET"}, BundleFields)
		if err != nil {
			t.Fatalf("ValidateHeaders() error = %v", err)
		}
	})

	t.Run("lists every missing column in schema order", func(t *testing.T) {
		_, err := ValidateHeaders(SheetProducts, []string{"SKU"}, ProductFields)
		schemaErr, ok := err.(*SchemaError)
		if !ok {
			t.Fatalf("ValidateHeaders() error = %T, want *SchemaError", err)
		}
		want := "PRODUCTS: missing required columns: Products_Name, Quantity_Product"
		if schemaErr.Error() != want {
			t.Errorf("Error() = %q, want %q", schemaErr.Error(), want)
		}
	})
}
