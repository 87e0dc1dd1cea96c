package core

import (
	"fmt"
	"sort"
	"strings"
)

// Platform identifies the e-commerce system an export came from.
type Platform string

const (
	PlatformShopify     Platform = "Shopify"
	PlatformWooCommerce Platform = "WooCommerce"
	PlatformUnknown     Platform = "Unknown"
)

// StandardColumns are the order columns the rest of the tool understands.
// Optional ones missing after mapping are added with defaults.
var StandardColumns = []string{
	FieldOrderID,
	FieldCreatedAt,
	FieldLineQuantity,
	FieldLineName,
	FieldLineSKU,
	FieldLinePrice,
	FieldLineDiscount,
	FieldShippingName,
	FieldShippingRoute,
}

// ColumnMapping renames client export columns to standard columns
// (client column -> standard column).
type ColumnMapping map[string]string

// Presets are the built-in mappings, keyed by lowercase platform name.
var Presets = map[string]ColumnMapping{
	"shopify": {},
	"woocommerce": {
		"Order ID":   FieldOrderID,
		"Ordered at": FieldCreatedAt,
	},
}

// Preset returns the built-in mapping for a platform name. Blank means no mapping.
func Preset(name string) (ColumnMapping, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ColumnMapping{}, nil
	}
	m, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown column preset %q", name)
	}
	return m, nil
}

// Standard returns the standard name of a client column, or the column itself.
func (m ColumnMapping) Standard(column string) string {
	key := normalizeHeader(column)
	for client, std := range m {
		if normalizeHeader(client) == key {
			return std
		}
	}
	return column
}

// Client returns the client column mapped to standard, if any.
func (m ColumnMapping) Client(standard string) (string, bool) {
	for client, std := range m {
		if std == standard {
			return client, true
		}
	}
	return "", false
}

// Apply renames the header of rs, checks the required order columns and
// appends any missing optional standard column filled with its default
// ("0" for price and discount, "1" for quantity, "" otherwise). Rows of rs
// are not modified; a new RecordSet is returned.
func (m ColumnMapping) Apply(rs RecordSet) (RecordSet, error) {
	header := make([]string, len(rs.Header))
	for i, h := range rs.Header {
		header[i] = m.Standard(h)
	}

	if _, err := ValidateHeaders(SheetOrders, header, OrderFields); err != nil {
		return RecordSet{}, err
	}

	idx := MakeHeaderIndex(header)
	var added, defaults []string
	for _, col := range StandardColumns {
		if idx.Has(col) {
			continue
		}
		added = append(added, col)
		defaults = append(defaults, standardDefault(col))
	}

	out := RecordSet{
		Header: append(header, added...),
		Rows:   make([][]string, len(rs.Rows)),
	}
	for i, row := range rs.Rows {
		padded := make([]string, len(header), len(header)+len(added))
		copy(padded, row)
		out.Rows[i] = append(padded, defaults...)
	}
	return out, nil
}

func standardDefault(column string) string {
	switch column {
	case FieldLinePrice, FieldLineDiscount:
		return "0"
	case FieldLineQuantity:
		return "1"
	default:
		return ""
	}
}

// MappingReport describes how a mapping would treat a header.
type MappingReport struct {
	Mapped          []string `json:"mapped"` // "client -> standard"
	Unmapped        []string `json:"unmapped"`
	MissingRequired []string `json:"missingRequired"`
	MissingOptional []string `json:"missingOptional"`
	Warnings        []string `json:"warnings"`
}

// OK reports whether every required column is present after mapping.
func (r MappingReport) OK() bool {
	return len(r.MissingRequired) == 0
}

// Validate reports what Apply would do with header, without failing.
func (m ColumnMapping) Validate(header []string) MappingReport {
	var report MappingReport

	after := make([]string, 0, len(header))
	for _, col := range header {
		std := m.Standard(col)
		if std != col {
			report.Mapped = append(report.Mapped, fmt.Sprintf("%s -> %s", col, std))
		} else {
			report.Unmapped = append(report.Unmapped, col)
		}
		after = append(after, std)
	}

	idx := MakeHeaderIndex(after)
	for _, spec := range OrderFields {
		if spec.Required && !idx.Has(spec.Name) {
			report.MissingRequired = append(report.MissingRequired, spec.Name)
		}
	}
	for _, col := range StandardColumns {
		if !idx.Has(col) && !isRequiredOrderField(col) {
			report.MissingOptional = append(report.MissingOptional, col)
		}
	}

	if len(report.MissingRequired) > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"missing required columns: %s; processing will fail",
			strings.Join(report.MissingRequired, ", ")))
	}
	if len(report.MissingOptional) > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"missing optional columns: %s; they will be added with default values",
			strings.Join(report.MissingOptional, ", ")))
	}
	return report
}

// Summary renders the mapping for display, sorted by client column.
func (m ColumnMapping) Summary() string {
	if len(m) == 0 {
		return "No column mapping (using standard column names)"
	}
	clients := make([]string, 0, len(m))
	for client := range m {
		clients = append(clients, client)
	}
	sort.Strings(clients)

	var b strings.Builder
	b.WriteString("Column mapping:")
	for _, client := range clients {
		fmt.Fprintf(&b, "\n  %s -> %s", client, m[client])
	}
	return b.String()
}

func isRequiredOrderField(col string) bool {
	for _, spec := range OrderFields {
		if spec.Required && spec.Name == col {
			return true
		}
	}
	return false
}

// DetectPlatform guesses the source platform from an export header.
func DetectPlatform(header []string) Platform {
	idx := MakeHeaderIndex(header)
	hasAll := func(cols ...string) bool {
		for _, c := range cols {
			if !idx.Has(c) {
				return false
			}
		}
		return true
	}

	switch {
	case hasAll(FieldOrderID, FieldCreatedAt, FieldLineSKU):
		return PlatformShopify
	case hasAll("Order ID", "Ordered at"):
		return PlatformWooCommerce
	default:
		return PlatformUnknown
	}
}
