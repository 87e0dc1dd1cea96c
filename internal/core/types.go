package core

import "strings"

// RecordSet is an already-parsed sheet or delimited file: a header row plus data rows.
// Rows may be shorter than the header; missing cells read as empty.
type RecordSet struct {
	Header []string
	Rows   [][]string
}

// Len returns the number of data rows.
func (rs RecordSet) Len() int {
	return len(rs.Rows)
}

// HeaderIndex maps column names (lowercase) to their position in a row.
type HeaderIndex map[string]int

// Has reports whether the named column exists.
func (h HeaderIndex) Has(name string) bool {
	_, ok := h[normalizeHeader(name)]
	return ok
}

// Cell returns the cleaned value of the named column in row, or "" when
// the column is absent or the row is short.
func (h HeaderIndex) Cell(row []string, name string) string {
	pos, ok := h[normalizeHeader(name)]
	if !ok || pos >= len(row) {
		return ""
	}
	return CleanCell(row[pos])
}

// Raw returns the named cell with surrounding whitespace trimmed and no
// other cleaning, for free text such as product names.
func (h HeaderIndex) Raw(row []string, name string) string {
	pos, ok := h[normalizeHeader(name)]
	if !ok || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

// FieldSpec describes one logical column of an input sheet.
type FieldSpec struct {
	Name     string // Column header name as exported by the source platform
	Required bool   // Column must exist in the header
}

// Product sheet columns.
const (
	FieldProductName     = "Products_Name"
	FieldProductSKU      = "SKU"
	FieldProductQuantity = "Quantity_Product"
)

// Bundle sheet columns.
const (
	FieldBundleName        = "SET_Name"
	FieldBundleSKU         = "SET_SKU"
	FieldComponentSKU      = "SKUs_in_SET"
	FieldComponentQuantity = "SET_QUANTITY"
)

// Addition sheet columns.
const (
	FieldTriggerSKU   = "IF_SKU"
	FieldTargetSKU    = "THEN_ADD"
	FieldRuleKind     = "TYPE"
	FieldRuleQuantity = "QUANTITY"
)

// Order export columns (Shopify naming, the standard the engine works in).
const (
	FieldOrderID       = "Name"
	FieldLineSKU       = "Lineitem sku"
	FieldLineQuantity  = "Lineitem quantity"
	FieldLineName      = "Lineitem name"
	FieldLinePrice     = "Lineitem price"
	FieldLineDiscount  = "Lineitem discount"
	FieldCreatedAt     = "Created at"
	FieldShippingName  = "Shipping Name"
	FieldShippingRoute = "Shipping Method"
)

// Sheet names used in schema errors and by the workbook loader.
const (
	SheetProducts  = "PRODUCTS"
	SheetBundles   = "SETS"
	SheetAdditions = "ADDITION"
	SheetOrders    = "ORDERS"
)

// ProductFields is the schema of the PRODUCTS sheet.
var ProductFields = []FieldSpec{
	{Name: FieldProductName, Required: true},
	{Name: FieldProductSKU, Required: true},
	{Name: FieldProductQuantity, Required: true},
}

// BundleFields is the schema of the SETS sheet.
var BundleFields = []FieldSpec{
	{Name: FieldBundleName, Required: true},
	{Name: FieldBundleSKU, Required: true},
	{Name: FieldComponentSKU, Required: true},
	{Name: FieldComponentQuantity},
}

// AdditionFields is the schema of the ADDITION sheet.
var AdditionFields = []FieldSpec{
	{Name: FieldTriggerSKU, Required: true},
	{Name: FieldTargetSKU, Required: true},
	{Name: FieldRuleKind},
	{Name: FieldRuleQuantity},
}

// OrderFields is the schema of an order export after column mapping.
var OrderFields = []FieldSpec{
	{Name: FieldOrderID, Required: true},
	{Name: FieldLineSKU, Required: true},
	{Name: FieldLineQuantity, Required: true},
	{Name: FieldLineName},
	{Name: FieldLinePrice},
	{Name: FieldLineDiscount},
}

// Columns returns the header names of specs in order.
func Columns(specs []FieldSpec) []string {
	cols := make([]string, len(specs))
	for i, spec := range specs {
		cols[i] = spec.Name
	}
	return cols
}
