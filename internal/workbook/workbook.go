// Package workbook reads the master workbook (PRODUCTS, SETS and ADDITION
// sheets) and writes blank master templates.
package workbook

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/setdecoder/internal/core"
	"github.com/xuri/excelize/v2"
)

// ErrMissingSheet is wrapped by Read when PRODUCTS or SETS is absent.
var ErrMissingSheet = errors.New("missing required sheet")

// Master holds the parsed sheets of a master workbook.
type Master struct {
	Products  core.RecordSet
	Bundles   core.RecordSet
	Additions core.RecordSet

	// HasAdditions is false when the workbook has no ADDITION sheet.
	HasAdditions bool
	// Sheets lists every sheet name in workbook order.
	Sheets []string
}

// Read parses a master workbook. Sheet names match case-insensitively;
// PRODUCTS and SETS are required, ADDITION is optional.
func Read(r io.Reader) (*Master, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	m := &Master{Sheets: f.GetSheetList()}

	find := func(want string) (string, bool) {
		for _, name := range m.Sheets {
			if strings.EqualFold(strings.TrimSpace(name), want) {
				return name, true
			}
		}
		return "", false
	}

	for _, sheet := range []struct {
		name string
		dst  *core.RecordSet
	}{
		{core.SheetProducts, &m.Products},
		{core.SheetBundles, &m.Bundles},
	} {
		actual, ok := find(sheet.name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingSheet, sheet.name)
		}
		rs, err := readSheet(f, actual)
		if err != nil {
			return nil, err
		}
		*sheet.dst = rs
	}

	if actual, ok := find(core.SheetAdditions); ok {
		rs, err := readSheet(f, actual)
		if err != nil {
			return nil, err
		}
		m.Additions = rs
		m.HasAdditions = true
	}

	return m, nil
}

// readSheet returns the first non-blank row as header and the rest as rows.
func readSheet(f *excelize.File, sheet string) (core.RecordSet, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return core.RecordSet{}, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	for len(rows) > 0 && blank(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return core.RecordSet{}, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		data = append(data, row)
	}
	return core.RecordSet{Header: header, Rows: data}, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// LoadInto loads the sheets into the catalogs. A workbook without an ADDITION
// sheet clears rules. Catalogs already loaded before a failing sheet keep
// their new contents; the failing one keeps its old contents.
func (m *Master) LoadInto(products *core.Catalog, bundles *core.BundleCatalog, rules *core.AdditionRuleTable) error {
	if err := products.Load(m.Products); err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	if err := bundles.Load(m.Bundles); err != nil {
		return fmt.Errorf("load sets: %w", err)
	}
	if !m.HasAdditions {
		rules.Clear()
		return nil
	}
	if err := rules.Load(m.Additions); err != nil {
		return fmt.Errorf("load additions: %w", err)
	}
	return nil
}
