package core

// convert.go turns spreadsheet and CSV cells into typed values.
//
// These functions handle the messy reality of exported order data:
//   - Currency symbols and thousand separators in prices
//   - Accounting negatives "(12.50)"
//   - Integral floats ("3.0") written by spreadsheet exports for counts
//   - Excel formula prefixes (="value")
//
// None of them fail: malformed input degrades to the caller's fallback so a
// single bad cell never aborts a whole load.

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// CleanCell removes common CSV artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}

var (
	minInt = decimal.NewFromInt(math.MinInt)
	maxInt = decimal.NewFromInt(math.MaxInt)
)

// ParseCount parses an integer cell. Integral decimals such as "3.0" are
// accepted; blank, non-numeric or fractional values return fallback.
func ParseCount(s string, fallback int) int {
	s = CleanCell(s)
	if s == "" {
		return fallback
	}

	if i, err := strconv.Atoi(s); err == nil {
		return i
	}

	if !numericRegex.MatchString(s) {
		return fallback
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() {
		return fallback
	}
	if d.LessThan(minInt) || d.GreaterThan(maxInt) {
		return fallback
	}
	return int(d.IntPart())
}

// ParsePositiveCount parses a catalog multiplier: anything blank,
// malformed or below 1 becomes 1.
func ParsePositiveCount(s string) int {
	n := ParseCount(s, 1)
	if n < 1 {
		return 1
	}
	return n
}

// ParseMoney converts a price or discount cell to a decimal.
// Blank input is zero and valid. Invalid input is zero and not valid.
func ParseMoney(s string) (decimal.Decimal, bool) {
	s = CleanCell(s)
	if s == "" {
		return decimal.Zero, true
	}

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// FormatMoney renders a decimal the way order exports expect: no exponent,
// no trailing zeros ("49.99", "0").
func FormatMoney(d decimal.Decimal) string {
	return d.String()
}
