package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// OrderLine is one line item of an order export.
//
// The typed fields are the ones the engine reads or writes. Every other
// column of the source row lives in Attributes, keyed by column name, and is
// copied unchanged to every line cloned from this one.
type OrderLine struct {
	OrderID    string
	SKU        string
	Quantity   int
	UnitPrice  decimal.Decimal
	Discount   decimal.Decimal
	Name       string
	Attributes map[string]string

	// badMoney marks a source row whose price or discount did not parse.
	badMoney bool
}

// Clone returns a deep copy of the line.
func (l OrderLine) Clone() OrderLine {
	c := l
	if l.Attributes != nil {
		c.Attributes = make(map[string]string, len(l.Attributes))
		for k, v := range l.Attributes {
			c.Attributes[k] = v
		}
	}
	return c
}

// Attr returns a pass-through attribute, or "" when absent.
func (l OrderLine) Attr(column string) string {
	return l.Attributes[column]
}

// OrderTable is an ordered sequence of order lines plus the column layout
// used to render it back to records. Lines of one order may be interleaved
// with lines of other orders.
type OrderTable struct {
	Columns []string
	Lines   []OrderLine
}

// Len returns the number of lines.
func (t OrderTable) Len() int {
	return len(t.Lines)
}

// Clone returns a deep copy of the table.
func (t OrderTable) Clone() OrderTable {
	c := OrderTable{
		Columns: append([]string(nil), t.Columns...),
		Lines:   make([]OrderLine, len(t.Lines)),
	}
	for i, line := range t.Lines {
		c.Lines[i] = line.Clone()
	}
	return c
}

// OrderIDs returns the distinct order ids in first-appearance order.
func (t OrderTable) OrderIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, line := range t.Lines {
		if _, ok := seen[line.OrderID]; ok {
			continue
		}
		seen[line.OrderID] = struct{}{}
		ids = append(ids, line.OrderID)
	}
	return ids
}

// Records renders the table back to a header plus string rows, in Columns order.
func (t OrderTable) Records() RecordSet {
	rs := RecordSet{
		Header: append([]string(nil), t.Columns...),
		Rows:   make([][]string, len(t.Lines)),
	}
	for i, line := range t.Lines {
		row := make([]string, len(t.Columns))
		for j, col := range t.Columns {
			row[j] = line.value(col)
		}
		rs.Rows[i] = row
	}
	return rs
}

func (l OrderLine) value(column string) string {
	switch column {
	case FieldOrderID:
		return l.OrderID
	case FieldLineSKU:
		return l.SKU
	case FieldLineQuantity:
		return strconv.Itoa(l.Quantity)
	case FieldLineName:
		return l.Name
	case FieldLinePrice:
		return FormatMoney(l.UnitPrice)
	case FieldLineDiscount:
		return FormatMoney(l.Discount)
	default:
		return l.Attributes[column]
	}
}

// OrdersFromRecords builds an order table from a parsed export.
//
// The required order columns must be present (*SchemaError otherwise).
// Standard columns are renamed to their canonical spelling, optional
// standard columns missing from the export are appended, and a repeated
// column name keeps its first occurrence. A blank or malformed quantity
// reads as 0 and a malformed price or discount as 0; Review reports them.
// The line name is kept as written apart from surrounding whitespace.
func OrdersFromRecords(rs RecordSet) (OrderTable, error) {
	idx, err := ValidateHeaders(SheetOrders, rs.Header, OrderFields)
	if err != nil {
		return OrderTable{}, err
	}

	canonical := make(map[string]string, len(OrderFields))
	for _, spec := range OrderFields {
		canonical[normalizeHeader(spec.Name)] = spec.Name
	}

	// Column position -> name, for pass-through attributes.
	columns := make([]string, 0, len(rs.Header)+len(OrderFields))
	attrCols := make(map[int]string)
	seen := make(map[string]struct{})

	for i, h := range rs.Header {
		key := normalizeHeader(h)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if std, ok := canonical[key]; ok {
			columns = append(columns, std)
			continue
		}
		name := strings.TrimSpace(h)
		columns = append(columns, name)
		attrCols[i] = name
	}

	for _, spec := range OrderFields {
		if !idx.Has(spec.Name) {
			columns = append(columns, spec.Name)
		}
	}

	table := OrderTable{Columns: columns, Lines: make([]OrderLine, 0, len(rs.Rows))}
	for _, row := range rs.Rows {
		if isBlankRow(row) {
			continue
		}

		price, priceOK := ParseMoney(idx.Cell(row, FieldLinePrice))
		discount, discountOK := ParseMoney(idx.Cell(row, FieldLineDiscount))

		line := OrderLine{
			OrderID:    idx.Cell(row, FieldOrderID),
			SKU:        idx.Cell(row, FieldLineSKU),
			Quantity:   ParseCount(idx.Cell(row, FieldLineQuantity), 0),
			UnitPrice:  price,
			Discount:   discount,
			Name:       idx.Raw(row, FieldLineName),
			Attributes: make(map[string]string, len(attrCols)),
			badMoney:   !priceOK || !discountOK,
		}
		for pos, name := range attrCols {
			if pos < len(row) {
				line.Attributes[name] = row[pos]
			} else {
				line.Attributes[name] = ""
			}
		}
		table.Lines = append(table.Lines, line)
	}

	return table, nil
}
