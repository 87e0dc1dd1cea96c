package core

import "testing"

func TestIsEmptySKU(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"nan", true},
		{"NaN", true},
		{"None", true},
		{"NULL", true},
		{" null ", true},
		{"A1", false},
		{"nanny", false},
		{"0", false},
	}

	for _, tt := range tests {
		if got := IsEmptySKU(tt.input); got != tt.want {
			t.Errorf("IsEmptySKU(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestGenerateSKU(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple name", input: "Barrier Cream Sample", want: "BARRIER_CREAM_SAMPLE"},
		{name: "punctuation removed", input: "Product & Sample (Test)", want: "PRODUCT_SAMPLE_TEST"},
		{name: "whitespace collapsed", input: "  Hand   Soap\t500ml ", want: "HAND_SOAP_500ML"},
		{name: "digits kept", input: "Gloves 100 pcs", want: "GLOVES_100_PCS"},
		{name: "hyphen removed", input: "Anti-Bac Wipes", want: "ANTIBAC_WIPES"},
		{name: "non-breaking space separates words", input: "Barrier\u00a0Cream Sample", want: "BARRIER_CREAM_SAMPLE"},
		{name: "narrow no-break space", input: "Hand\u202fSoap", want: "HAND_SOAP"},
		{name: "punctuation only", input: "!!! ???", want: UnknownProductSKU},
		{name: "blank", input: "   ", want: UnknownProductSKU},
		{name: "empty", input: "", want: UnknownProductSKU},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateSKU(tt.input); got != tt.want {
				t.Errorf("GenerateSKU(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateSKU(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"ABC-123", false},
		{"BARRIER_CREAM", false},
		{"A", true},
		{"", true},
		{"none", true},
		{"abc", true},
		{"AB C", true},
		{"AB/C", true},
	}

	for _, tt := range tests {
		err := ValidateSKU(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateSKU(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestSanitizeSKU(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"abc-123", "ABC-123"},
		{" ab c/d ", "ABCD"},
		{"null", ""},
		{"A_B", "A_B"},
	}

	for _, tt := range tests {
		if got := SanitizeSKU(tt.input); got != tt.want {
			t.Errorf("SanitizeSKU(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
