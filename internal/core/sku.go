package core

import (
	"fmt"
	"regexp"
	"strings"
)

// UnknownProductSKU is generated for a name with no usable characters.
const UnknownProductSKU = "UNKNOWN_PRODUCT"

// EmptySKUMarker stands in for a blank sku in identifier change reports.
const EmptySKUMarker = "(empty)"

var (
	skuStripRegex = regexp.MustCompile(`[^a-zA-Z0-9\s\p{Z}]`)
	spaceRunRegex = regexp.MustCompile(`[\s\p{Z}]+`)
	canonicalSKU  = regexp.MustCompile(`^[A-Z0-9\-_]+$`)
	skuInvalidRun = regexp.MustCompile(`[^A-Z0-9\-_]`)
)

// IsEmptySKU reports whether s is blank or one of the placeholder strings
// exports write for a missing value ("nan", "none", "null").
func IsEmptySKU(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	switch strings.ToLower(s) {
	case "nan", "none", "null":
		return true
	}
	return false
}

// GenerateSKU derives a sku from a product name:
//
//	"Barrier Cream Sample"    -> "BARRIER_CREAM_SAMPLE"
//	"Product & Sample (Test)" -> "PRODUCT_SAMPLE_TEST"
//	"!!!"                     -> "UNKNOWN_PRODUCT"
func GenerateSKU(name string) string {
	cleaned := skuStripRegex.ReplaceAllString(name, "")
	cleaned = spaceRunRegex.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	sku := strings.ReplaceAll(strings.ToUpper(cleaned), " ", "_")
	if sku == "" {
		return UnknownProductSKU
	}
	return sku
}

// ValidateSKU checks that s is a canonical sku: 2-100 characters of A-Z, 0-9, '-' or '_'.
func ValidateSKU(s string) error {
	if IsEmptySKU(s) {
		return fmt.Errorf("sku is empty")
	}
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return fmt.Errorf("sku too short (minimum 2 characters)")
	}
	if len(s) > 100 {
		return fmt.Errorf("sku too long (maximum 100 characters)")
	}
	if !canonicalSKU.MatchString(s) {
		return fmt.Errorf("sku contains invalid characters (use A-Z, 0-9, -, _)")
	}
	return nil
}

// SanitizeSKU upper-cases s and drops every character ValidateSKU rejects.
func SanitizeSKU(s string) string {
	if IsEmptySKU(s) {
		return ""
	}
	return skuInvalidRun.ReplaceAllString(strings.ToUpper(strings.TrimSpace(s)), "")
}
