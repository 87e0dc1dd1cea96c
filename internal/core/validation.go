package core

// validation.go checks sheet headers before any row is read.
//
// A load fails only on structural problems: a required column that is
// absent from the header. Cell-level problems (blank or malformed values)
// never fail a load; they degrade to documented defaults and can be surfaced
// separately through Review.

import "strings"

// ValidateHeaders validates that all required columns exist in the header.
// Returns a mapping from column name to index, or a *SchemaError listing
// every missing required column in schema order.
func ValidateHeaders(sheet string, header []string, specs []FieldSpec) (HeaderIndex, error) {
	idx := MakeHeaderIndex(header)
	var missing []string

	for _, spec := range specs {
		if spec.Required && !idx.Has(spec.Name) {
			missing = append(missing, spec.Name)
		}
	}

	if len(missing) > 0 {
		return nil, &SchemaError{Sheet: sheet, Missing: missing}
	}

	return idx, nil
}

// MakeHeaderIndex creates a HeaderIndex from a header row.
// Keys are lowercased for case-insensitive matching. When a header repeats,
// the first occurrence wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, dup := idx[key]; dup {
			continue
		}
		idx[key] = i
	}
	return idx
}

// isBlankRow reports whether every cell of row is empty after cleaning.
func isBlankRow(row []string) bool {
	for _, v := range row {
		if CleanCell(v) != "" {
			return false
		}
	}
	return true
}

func normalizeHeader(h string) string {
	return strings.ToLower(CleanCell(h))
}
